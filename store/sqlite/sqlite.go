// Package sqlite persists agents, styles, workflows, meetings and messages in
// a single SQLite database file. Workflow steps are stored as a tagged JSON
// column so the schema stays stable when step kinds gain fields.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/kaigi-ai/kaigi/core"
)

func marshalStrings(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	return json.Marshal(values)
}

func unmarshalStrings(data []byte, dst *[]string) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}

// Store implements every core store interface over database/sql.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Stores bundles the store into the interface set consumed by the runner.
func (s *Store) Stores() core.Stores {
	return core.Stores{Agents: s, Styles: s, Workflows: s, Meetings: s, Messages: s}
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS agents (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			role TEXT NOT NULL,
			avatar_url TEXT NOT NULL DEFAULT '',
			persona TEXT NOT NULL,
			prompt TEXT NOT NULL DEFAULT '',
			style_id TEXT NOT NULL,
			provider TEXT NOT NULL,
			model TEXT NOT NULL,
			temperature REAL NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS output_styles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			prompt_segment TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS workflows (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			start_prompt TEXT NOT NULL,
			end_prompt TEXT NOT NULL,
			agent_ids TEXT NOT NULL,
			steps TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS meetings (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			topic TEXT NOT NULL,
			whiteboard TEXT NOT NULL DEFAULT '',
			workflow_id TEXT NOT NULL,
			current_step INTEGER NOT NULL DEFAULT 0,
			start_prompt_override TEXT NOT NULL DEFAULT '',
			end_prompt_override TEXT NOT NULL DEFAULT '',
			summary_agent_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			final_conclusion TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			meeting_id TEXT NOT NULL,
			agent_id TEXT NOT NULL,
			agent_name TEXT NOT NULL,
			agent_role TEXT NOT NULL DEFAULT '',
			agent_avatar_url TEXT NOT NULL DEFAULT '',
			step_number INTEGER NOT NULL DEFAULT 0,
			content TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_meeting ON messages (meeting_id, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// GetAgent implements core.AgentStore.
func (s *Store) GetAgent(ctx context.Context, id string) (*core.Agent, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, role, avatar_url, persona, prompt,
		style_id, provider, model, temperature, created_at, updated_at
		FROM agents WHERE id = ?`, id)

	var agent core.Agent
	var provider string
	err := row.Scan(&agent.ID, &agent.Name, &agent.Role, &agent.AvatarURL, &agent.Persona,
		&agent.Prompt, &agent.StyleID, &provider, &agent.Model, &agent.Temperature,
		&agent.CreatedAt, &agent.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	agent.Provider = core.Provider(provider)
	return &agent, nil
}

// PutAgent implements core.AgentStore with upsert semantics.
func (s *Store) PutAgent(ctx context.Context, agent *core.Agent) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO agents
		(id, name, role, avatar_url, persona, prompt, style_id, provider, model, temperature, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, role = excluded.role, avatar_url = excluded.avatar_url,
			persona = excluded.persona, prompt = excluded.prompt, style_id = excluded.style_id,
			provider = excluded.provider, model = excluded.model, temperature = excluded.temperature,
			updated_at = excluded.updated_at`,
		agent.ID, agent.Name, agent.Role, agent.AvatarURL, agent.Persona, agent.Prompt,
		agent.StyleID, string(agent.Provider), agent.Model, agent.Temperature,
		agent.CreatedAt, agent.UpdatedAt)
	return err
}

// GetOutputStyle implements core.StyleStore.
func (s *Store) GetOutputStyle(ctx context.Context, id string) (*core.OutputStyle, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, prompt_segment, description, is_active, created_at
		FROM output_styles WHERE id = ?`, id)

	var style core.OutputStyle
	err := row.Scan(&style.ID, &style.Name, &style.PromptSegment, &style.Description,
		&style.IsActive, &style.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &style, nil
}

// PutOutputStyle implements core.StyleStore with upsert semantics.
func (s *Store) PutOutputStyle(ctx context.Context, style *core.OutputStyle) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO output_styles
		(id, name, prompt_segment, description, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, prompt_segment = excluded.prompt_segment,
			description = excluded.description, is_active = excluded.is_active`,
		style.ID, style.Name, style.PromptSegment, style.Description, style.IsActive, style.CreatedAt)
	return err
}

// GetWorkflow implements core.WorkflowStore.
func (s *Store) GetWorkflow(ctx context.Context, id string) (*core.Workflow, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, description, start_prompt, end_prompt,
		agent_ids, steps, is_active, created_at
		FROM workflows WHERE id = ?`, id)

	var workflow core.Workflow
	var agentIDs, steps []byte
	err := row.Scan(&workflow.ID, &workflow.Name, &workflow.Description, &workflow.StartPrompt,
		&workflow.EndPrompt, &agentIDs, &steps, &workflow.IsActive, &workflow.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := unmarshalStrings(agentIDs, &workflow.AgentIDs); err != nil {
		return nil, fmt.Errorf("decode workflow %s agent ids: %w", id, err)
	}
	if workflow.Steps, err = core.UnmarshalSteps(steps); err != nil {
		return nil, fmt.Errorf("decode workflow %s steps: %w", id, err)
	}
	return &workflow, nil
}

// PutWorkflow implements core.WorkflowStore with upsert semantics.
func (s *Store) PutWorkflow(ctx context.Context, workflow *core.Workflow) error {
	steps, err := core.MarshalSteps(workflow.Steps)
	if err != nil {
		return fmt.Errorf("encode workflow %s steps: %w", workflow.ID, err)
	}
	agentIDs, err := marshalStrings(workflow.AgentIDs)
	if err != nil {
		return fmt.Errorf("encode workflow %s agent ids: %w", workflow.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO workflows
		(id, name, description, start_prompt, end_prompt, agent_ids, steps, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, description = excluded.description,
			start_prompt = excluded.start_prompt, end_prompt = excluded.end_prompt,
			agent_ids = excluded.agent_ids, steps = excluded.steps, is_active = excluded.is_active`,
		workflow.ID, workflow.Name, workflow.Description, workflow.StartPrompt, workflow.EndPrompt,
		string(agentIDs), string(steps), workflow.IsActive, workflow.CreatedAt)
	return err
}

// GetMeeting implements core.MeetingStore.
func (s *Store) GetMeeting(ctx context.Context, id string) (*core.Meeting, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, title, topic, whiteboard, workflow_id, current_step,
		start_prompt_override, end_prompt_override, summary_agent_id, status, final_conclusion,
		created_at, completed_at
		FROM meetings WHERE id = ?`, id)

	var meeting core.Meeting
	var status string
	var completedAt sql.NullTime
	err := row.Scan(&meeting.ID, &meeting.Title, &meeting.Topic, &meeting.Whiteboard,
		&meeting.WorkflowID, &meeting.CurrentStep, &meeting.StartPromptOverride,
		&meeting.EndPromptOverride, &meeting.SummaryAgentID, &status, &meeting.FinalConclusion,
		&meeting.CreatedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	meeting.Status = core.MeetingStatus(status)
	if completedAt.Valid {
		meeting.CompletedAt = &completedAt.Time
	}
	return &meeting, nil
}

// CreateMeeting implements core.MeetingStore.
func (s *Store) CreateMeeting(ctx context.Context, meeting *core.Meeting) error {
	var completedAt sql.NullTime
	if meeting.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *meeting.CompletedAt, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO meetings
		(id, title, topic, whiteboard, workflow_id, current_step, start_prompt_override,
		end_prompt_override, summary_agent_id, status, final_conclusion, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meeting.ID, meeting.Title, meeting.Topic, meeting.Whiteboard, meeting.WorkflowID,
		meeting.CurrentStep, meeting.StartPromptOverride, meeting.EndPromptOverride,
		meeting.SummaryAgentID, string(meeting.Status), meeting.FinalConclusion,
		meeting.CreatedAt, completedAt)
	return err
}

// UpdateMeeting implements core.MeetingStore applying only non-nil fields.
func (s *Store) UpdateMeeting(ctx context.Context, id string, update core.MeetingUpdate) error {
	set := make([]string, 0, 5)
	args := make([]any, 0, 6)
	if update.CurrentStep != nil {
		set = append(set, "current_step = ?")
		args = append(args, *update.CurrentStep)
	}
	if update.Status != nil {
		set = append(set, "status = ?")
		args = append(args, string(*update.Status))
	}
	if update.Whiteboard != nil {
		set = append(set, "whiteboard = ?")
		args = append(args, *update.Whiteboard)
	}
	if update.FinalConclusion != nil {
		set = append(set, "final_conclusion = ?")
		args = append(args, *update.FinalConclusion)
	}
	if update.CompletedAt != nil {
		set = append(set, "completed_at = ?")
		args = append(args, *update.CompletedAt)
	}
	if len(set) == 0 {
		return nil
	}

	query := "UPDATE meetings SET "
	for i, clause := range set {
		if i > 0 {
			query += ", "
		}
		query += clause
	}
	query += " WHERE id = ?"
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

// AppendMessage implements core.MessageStore.
func (s *Store) AppendMessage(ctx context.Context, message *core.Message) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO messages
		(id, meeting_id, agent_id, agent_name, agent_role, agent_avatar_url, step_number, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		message.ID, message.MeetingID, message.AgentID, message.AgentName, message.AgentRole,
		message.AgentAvatarURL, message.StepNumber, message.Content, message.CreatedAt)
	return err
}

// ListMessages implements core.MessageStore ordered by creation time.
func (s *Store) ListMessages(ctx context.Context, meetingID string) ([]core.Message, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, meeting_id, agent_id, agent_name, agent_role,
		agent_avatar_url, step_number, content, created_at
		FROM messages WHERE meeting_id = ? ORDER BY created_at, rowid`, meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []core.Message
	for rows.Next() {
		var m core.Message
		if err := rows.Scan(&m.ID, &m.MeetingID, &m.AgentID, &m.AgentName, &m.AgentRole,
			&m.AgentAvatarURL, &m.StepNumber, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		history = append(history, m)
	}
	return history, rows.Err()
}
