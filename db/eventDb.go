package db

import (
	"database/sql"
	"fmt"

	"calassist/models"

	_ "github.com/lib/pq"
)

type EventRepository interface {
	CreateEvent(event *models.Event) error
	GetEventByID(id string) (*models.Event, error)
	GetAllEvents() ([]models.Event, error)
	UpdateEvent(id string, patch *models.EventPatch) (*models.Event, error)
	DeleteEvent(id string) error
	Close() error
}

type PostgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(databaseURL string) (*PostgresEventRepository, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresEventRepository{db: db}, nil
}

func (r *PostgresEventRepository) CreateEvent(event *models.Event) error {
	query := `
		INSERT INTO calassist.events (id, title, start_time, end_time, description, location)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(query, event.ID, event.Title, event.Start, event.End, event.Description, event.Location)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

func (r *PostgresEventRepository) GetEventByID(id string) (*models.Event, error) {
	query := `
		SELECT id, title, start_time, end_time, description, location
		FROM calassist.events
		WHERE id = $1`

	event := &models.Event{}
	row := r.db.QueryRow(query, id)

	err := row.Scan(&event.ID, &event.Title, &event.Start, &event.End, &event.Description, &event.Location)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("event with id %s not found", id)
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return event, nil
}

func (r *PostgresEventRepository) GetAllEvents() ([]models.Event, error) {
	query := `
		SELECT id, title, start_time, end_time, description, location
		FROM calassist.events
		ORDER BY start_time ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Title, &event.Start, &event.End, &event.Description, &event.Location); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	return events, nil
}

func (r *PostgresEventRepository) UpdateEvent(id string, patch *models.EventPatch) (*models.Event, error) {
	query := `
		UPDATE calassist.events
		SET title = COALESCE($2, title),
		    start_time = COALESCE($3, start_time),
		    end_time = COALESCE($4, end_time),
		    description = COALESCE($5, description),
		    location = COALESCE($6, location)
		WHERE id = $1
		RETURNING id, title, start_time, end_time, description, location`

	event := &models.Event{}
	row := r.db.QueryRow(query, id, patch.Title, patch.Start, patch.End, patch.Description, patch.Location)

	err := row.Scan(&event.ID, &event.Title, &event.Start, &event.End, &event.Description, &event.Location)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("event with id %s not found", id)
		}
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	return event, nil
}

func (r *PostgresEventRepository) DeleteEvent(id string) error {
	query := `DELETE FROM calassist.events WHERE id = $1`

	if _, err := r.db.Exec(query, id); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	return nil
}

func (r *PostgresEventRepository) Close() error {
	return r.db.Close()
}
