// Command seed loads development fixture data: four users across the three
// roles, tasks in every lifecycle state, and a few recorded events. It wipes
// the existing rows first, so never point it at anything but a dev database.
package main

import (
	"context"
	"database/sql"
	"log"

	"github.com/dmitrijs2005/taskhub/internal/cryptox"
	"github.com/dmitrijs2005/taskhub/internal/server/config"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close()

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	log.Println("Clearing existing data...")
	for _, table := range []string{"events", "tasks", "users"} {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			log.Fatalf("clearing %s: %v", table, err)
		}
	}

	log.Println("Creating users...")

	hash, err := cryptox.HashPassword("password123")
	if err != nil {
		log.Fatalf("hashing password: %v", err)
	}

	usersRepo := m.Users(db)
	usersData := []*models.User{
		{ID: uuid.NewString(), Email: "admin@example.com", PasswordHash: hash, Name: "Admin User", Role: models.RoleAdmin},
		{ID: uuid.NewString(), Email: "manager@example.com", PasswordHash: hash, Name: "Manager User", Role: models.RoleManager},
		{ID: uuid.NewString(), Email: "member1@example.com", PasswordHash: hash, Name: "Member One", Role: models.RoleMember},
		{ID: uuid.NewString(), Email: "member2@example.com", PasswordHash: hash, Name: "Member Two", Role: models.RoleMember},
	}
	for _, u := range usersData {
		if _, err := usersRepo.Create(ctx, u); err != nil {
			log.Fatalf("creating user %s: %v", u.Email, err)
		}
	}
	admin, manager, member1, member2 := usersData[0], usersData[1], usersData[2], usersData[3]

	log.Println("Creating tasks...")

	tasksRepo := m.Tasks(db)
	tasksData := []*models.Task{
		{ID: uuid.NewString(), Title: "Setup development environment", Description: "Install Go, PostgreSQL, and configure the project", State: models.StateDraft, CreatorID: manager.ID},
		{ID: uuid.NewString(), Title: "Write API documentation", Description: "Document all API endpoints with examples", State: models.StateDraft, CreatorID: manager.ID},
		{ID: uuid.NewString(), Title: "Implement user authentication", Description: "Add JWT-based authentication to API", State: models.StateAssigned, CreatorID: manager.ID, AssigneeID: &member1.ID},
		{ID: uuid.NewString(), Title: "Create database migrations", Description: "Design and implement database schema", State: models.StateAssigned, CreatorID: manager.ID, AssigneeID: &member2.ID},
		{ID: uuid.NewString(), Title: "Build task management endpoints", Description: "CRUD operations for tasks with proper authorization", State: models.StateInProgress, CreatorID: manager.ID, AssigneeID: &member1.ID},
		{ID: uuid.NewString(), Title: "Setup CI/CD pipeline", Description: "Configure GitHub Actions for automated testing", State: models.StateCompleted, CreatorID: admin.ID, AssigneeID: &member2.ID},
		{ID: uuid.NewString(), Title: "Migrate to MongoDB", Description: "Decided to stick with PostgreSQL instead", State: models.StateCancelled, CreatorID: admin.ID},
	}
	for _, t := range tasksData {
		if _, err := tasksRepo.Create(ctx, t); err != nil {
			log.Fatalf("creating task %q: %v", t.Title, err)
		}
	}

	log.Println("Creating events...")

	eventsRepo := m.Events(db)
	eventsData := []*models.Event{
		{ID: uuid.NewString(), EventType: models.EventUserCreated, Payload: map[string]any{"user_id": admin.ID, "email": admin.Email}},
		{ID: uuid.NewString(), EventType: models.EventTaskCreated, Payload: map[string]any{"task_id": tasksData[0].ID, "creator_id": manager.ID}, TaskID: &tasksData[0].ID},
		{ID: uuid.NewString(), EventType: models.EventTaskAssigned, Payload: map[string]any{"task_id": tasksData[2].ID, "assignee_id": member1.ID}, TaskID: &tasksData[2].ID},
	}
	for _, e := range eventsData {
		if _, err := eventsRepo.Create(ctx, e); err != nil {
			log.Fatalf("creating event %s: %v", e.EventType, err)
		}
	}

	// the assignment event is already consumed in the fixtures
	if _, err := db.ExecContext(ctx,
		"UPDATE events SET processed_at = now() - interval '1 hour' WHERE id = $1", eventsData[2].ID); err != nil {
		log.Fatalf("marking event processed: %v", err)
	}

	log.Println("Seed data successfully created")
	log.Println("Login credentials:")
	log.Println("  Admin:   admin@example.com / password123")
	log.Println("  Manager: manager@example.com / password123")
	log.Println("  Member:  member1@example.com / password123")
}
