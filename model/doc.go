// Package model defines the model invocation port consumed by step handlers:
// a single opaque capability that turns a rendered prompt plus options into
// generated text and token usage, or fails. Provider adapters live in the
// subpackages; Registry routes an invocation to the adapter matching the
// requested provider. WithRetry adds the transport-level timeout and
// exponential backoff policy so the engine only ever sees success or failure.
package model
