package integration_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/lexportal/collabsync/internal/config"
	"github.com/lexportal/collabsync/internal/database"
	"github.com/lexportal/collabsync/internal/models"
	"github.com/lexportal/collabsync/internal/services"
	"github.com/lexportal/collabsync/internal/types"
	"github.com/lexportal/collabsync/tests/helpers"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// TestWithMariaDB tests the service with a real MariaDB container
func TestWithMariaDB(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// Start MariaDB container
	mariadbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        os.Getenv("DB_IMAGE"),
			ExposedPorts: []string{"3306/tcp"},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": "rootpass",
				"MYSQL_DATABASE":      "testdb",
				"MYSQL_USER":          "testuser",
				"MYSQL_PASSWORD":      "testpass",
			},
			WaitingFor: wait.ForLog("ready for connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start MariaDB container: %v", err)
	}
	defer func() {
		if err := mariadbContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate MariaDB container: %v", err)
		}
	}()

	// Get container host and port
	host, err := mariadbContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := mariadbContainer.MappedPort(ctx, "3306")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	// Create config
	cfg := &config.Config{
		DBType:            "mysql",
		DBHost:            host,
		DBPort:            port.Port(),
		DBDatabase:        "testdb",
		DBUser:            "testuser",
		DBPassword:        "testpass",
		DBConnectionLimit: 5,
	}

	// Wait for database to be ready
	time.Sleep(5 * time.Second)

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	// Run tests
	t.Run("JoinAndPresence", func(t *testing.T) {
		testJoinAndPresence(t, db)
	})

	t.Run("EditVersionControl", func(t *testing.T) {
		testEditVersionControl(t, db)
	})

	t.Run("ConcurrentEditSingleWinner", func(t *testing.T) {
		testConcurrentEditSingleWinner(t, db)
	})

	t.Run("LockIdempotence", func(t *testing.T) {
		testLockIdempotence(t, db)
	})

	t.Run("CommentLifecycle", func(t *testing.T) {
		testCommentLifecycle(t, db)
	})
}

// TestWithPostgreSQL tests the service with a real PostgreSQL container
func TestWithPostgreSQL(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// Start PostgreSQL container
	postgresContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        os.Getenv("POSTGRES_IMAGE"),
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_PASSWORD": "testpass",
				"POSTGRES_USER":     "testuser",
				"POSTGRES_DB":       "testdb",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer func() {
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}()

	// Get container host and port
	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgresContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	// Create config
	cfg := &config.Config{
		DBType:            "postgres",
		DBHost:            host,
		DBPort:            port.Port(),
		DBDatabase:        "testdb",
		DBUser:            "testuser",
		DBPassword:        "testpass",
		DBConnectionLimit: 5,
	}

	// Wait for database to be ready
	time.Sleep(2 * time.Second)

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	// Run tests
	t.Run("JoinAndPresence", func(t *testing.T) {
		testJoinAndPresence(t, db)
	})

	t.Run("EditVersionControl", func(t *testing.T) {
		testEditVersionControl(t, db)
	})

	t.Run("ConcurrentEditSingleWinner", func(t *testing.T) {
		testConcurrentEditSingleWinner(t, db)
	})

	t.Run("LockIdempotence", func(t *testing.T) {
		testLockIdempotence(t, db)
	})

	t.Run("CommentLifecycle", func(t *testing.T) {
		testCommentLifecycle(t, db)
	})
}

// testJoinAndPresence tests the join/leave/collaborator cycle
func testJoinAndPresence(t *testing.T, db *gorm.DB) {
	alice := types.AuthUser{ID: "11111111-1111-1111-1111-111111111111", DisplayName: "Alice"}
	bob := types.AuthUser{ID: "22222222-2222-2222-2222-222222222222", DisplayName: "Bob"}

	wsID := helpers.CreateTestWorkspace(t, db, "presence-ws")
	helpers.CreateTestMembership(t, db, wsID, alice.ID, models.RoleEditor)
	helpers.CreateTestMembership(t, db, wsID, bob.ID, models.RoleViewer)
	docID := helpers.CreateTestDocument(t, db, wsID, "Presence Doc", map[string]string{"text": "hello"}, 0)

	timeout := 5 * time.Minute

	result, err := services.Join(db, alice, docID, timeout)
	if err != nil {
		t.Fatalf("Alice failed to join: %v", err)
	}
	if result.SessionToken == "" {
		t.Error("Expected a session token")
	}
	if len(result.ActiveCollaborators) != 0 {
		t.Errorf("Expected no collaborators for first join, got %d", len(result.ActiveCollaborators))
	}

	bobResult, err := services.Join(db, bob, docID, timeout)
	if err != nil {
		t.Fatalf("Bob failed to join: %v", err)
	}
	if len(bobResult.ActiveCollaborators) != 1 {
		t.Fatalf("Expected 1 collaborator for Bob, got %d", len(bobResult.ActiveCollaborators))
	}
	if bobResult.ActiveCollaborators[0].UserID != alice.ID {
		t.Errorf("Expected Alice as collaborator, got %s", bobResult.ActiveCollaborators[0].UserID)
	}

	if err := services.Leave(db, bob.ID, docID); err != nil {
		t.Fatalf("Bob failed to leave: %v", err)
	}

	var doc models.CollaborativeDocument
	if err := db.First(&doc, "document_id = ?", docID).Error; err != nil {
		t.Fatalf("Failed to load document: %v", err)
	}
	views, err := services.ActiveCollaborators(db, &doc, alice.ID, timeout)
	if err != nil {
		t.Fatalf("Failed to list collaborators: %v", err)
	}
	if len(views) != 0 {
		t.Errorf("Expected no collaborators after Bob left, got %d", len(views))
	}
}

// testEditVersionControl tests optimistic locking on edits
func testEditVersionControl(t *testing.T, db *gorm.DB) {
	user := types.AuthUser{ID: "33333333-3333-3333-3333-333333333333", DisplayName: "Editor"}

	wsID := helpers.CreateTestWorkspace(t, db, "edit-ws")
	helpers.CreateTestMembership(t, db, wsID, user.ID, models.RoleEditor)
	docID := helpers.CreateTestDocument(t, db, wsID, "Versioned Doc", map[string]string{"text": "v0"}, 0)

	result, err := services.ApplyEdit(db, user, docID, services.EditInput{
		Version: 0,
		Content: models.NewJSON([]byte(`{"text":"v1"}`)),
	})
	if err != nil {
		t.Fatalf("Failed to apply edit: %v", err)
	}
	if result.NewVersion != 1 {
		t.Errorf("Expected version 1, got %d", result.NewVersion)
	}

	// Replay with the stale version
	_, err = services.ApplyEdit(db, user, docID, services.EditInput{
		Version: 0,
		Content: models.NewJSON([]byte(`{"text":"stale"}`)),
	})
	if err == nil {
		t.Fatal("Expected version conflict error")
	}
	conflict, ok := types.IsConflict(err)
	if !ok {
		t.Fatalf("Expected E_VERSION conflict, got: %v", err)
	}
	if conflict.Expected != 1 {
		t.Errorf("Expected authoritative version 1, got %d", conflict.Expected)
	}

	// Rebase and resubmit
	_, err = services.ApplyEdit(db, user, docID, services.EditInput{
		Version: 1,
		Content: models.NewJSON([]byte(`{"text":"v2"}`)),
	})
	if err != nil {
		t.Errorf("Failed to update with correct version: %v", err)
	}

	entries, err := services.EditLog(db, docID)
	if err != nil {
		t.Fatalf("Failed to read edit log: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 edit log entries, got %d", len(entries))
	}
}

// testConcurrentEditSingleWinner races several edits holding the same
// version against each other: exactly one may win, and every loser must
// receive the authoritative post-bump version
func testConcurrentEditSingleWinner(t *testing.T, db *gorm.DB) {
	user := types.AuthUser{ID: "55555555-5555-5555-5555-555555555555", DisplayName: "Racer"}

	wsID := helpers.CreateTestWorkspace(t, db, "race-ws")
	helpers.CreateTestMembership(t, db, wsID, user.ID, models.RoleEditor)
	docID := helpers.CreateTestDocument(t, db, wsID, "Raced Doc", map[string]string{"text": "v3"}, 3)

	const writers = 6
	results := make(chan error, writers)
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < writers; i++ {
		go func(i int) {
			start.Wait()
			_, err := services.ApplyEdit(db, user, docID, services.EditInput{
				Version: 3,
				Content: models.NewJSON([]byte(fmt.Sprintf(`{"text":"writer-%d"}`, i))),
			})
			results <- err
		}(i)
	}
	start.Done()

	var successes, conflicts int
	for i := 0; i < writers; i++ {
		err := <-results
		if err == nil {
			successes++
			continue
		}
		conflict, ok := types.IsConflict(err)
		if !ok {
			t.Fatalf("Expected E_VERSION conflict, got: %v", err)
		}
		if conflict.Expected != 4 {
			t.Errorf("Expected authoritative version 4, got %d", conflict.Expected)
		}
		conflicts++
	}
	if successes != 1 {
		t.Errorf("Expected exactly 1 successful edit, got %d", successes)
	}
	if conflicts != writers-1 {
		t.Errorf("Expected %d conflicts, got %d", writers-1, conflicts)
	}

	var doc models.CollaborativeDocument
	if err := db.First(&doc, "document_id = ?", docID).Error; err != nil {
		t.Fatalf("Failed to load document: %v", err)
	}
	if doc.DocumentVersion != 4 {
		t.Errorf("Expected final version 4, got %d", doc.DocumentVersion)
	}

	entries, err := services.EditLog(db, docID)
	if err != nil {
		t.Fatalf("Failed to read edit log: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 edit log entry for the winner, got %d", len(entries))
	}
}

// testLockIdempotence tests lock provisioning against a real database,
// where a no-op UPDATE reports zero changed rows
func testLockIdempotence(t *testing.T, db *gorm.DB) {
	user := types.AuthUser{ID: "66666666-6666-6666-6666-666666666666", DisplayName: "Admin"}

	wsID := helpers.CreateTestWorkspace(t, db, "lock-ws")
	helpers.CreateTestMembership(t, db, wsID, user.ID, models.RoleOwner)
	docID := helpers.CreateTestDocument(t, db, wsID, "Locked Doc", map[string]string{"text": "hello"}, 0)

	holder := user.ID
	if err := services.SetLockHolder(db, docID, &holder); err != nil {
		t.Fatalf("Failed to set lock holder: %v", err)
	}
	// Re-sending the same holder must not be mistaken for a missing document
	if err := services.SetLockHolder(db, docID, &holder); err != nil {
		t.Errorf("Re-sending the same lock state failed: %v", err)
	}

	if err := services.SetLockHolder(db, docID, nil); err != nil {
		t.Fatalf("Failed to clear lock holder: %v", err)
	}
	if err := services.SetLockHolder(db, docID, nil); err != nil {
		t.Errorf("Clearing an already-clear lock failed: %v", err)
	}

	if err := services.SetLockHolder(db, 99999, nil); err != types.ErrNotFound {
		t.Errorf("Expected not-found for a missing document, got: %v", err)
	}
}

// testCommentLifecycle tests add/list/resolve/delete against a real database
func testCommentLifecycle(t *testing.T, db *gorm.DB) {
	user := types.AuthUser{ID: "44444444-4444-4444-4444-444444444444", DisplayName: "Commenter"}

	wsID := helpers.CreateTestWorkspace(t, db, "comment-ws")
	helpers.CreateTestMembership(t, db, wsID, user.ID, models.RoleOwner)
	docID := helpers.CreateTestDocument(t, db, wsID, "Comment Doc", map[string]string{"text": "hello"}, 0)

	comment, err := services.AddComment(db, nil, user, docID, services.CommentInput{
		Content:  "top level",
		Position: 4,
	})
	if err != nil {
		t.Fatalf("Failed to add comment: %v", err)
	}

	reply, err := services.AddComment(db, nil, user, docID, services.CommentInput{
		Content:  "a reply",
		ParentID: &comment.CommentID,
	})
	if err != nil {
		t.Fatalf("Failed to add reply: %v", err)
	}

	comments, err := services.ListComments(db, docID)
	if err != nil {
		t.Fatalf("Failed to list comments: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("Expected 2 comments, got %d", len(comments))
	}

	if _, err := services.ResolveComment(db, user, docID, comment.CommentID); err != nil {
		t.Fatalf("Failed to resolve comment: %v", err)
	}

	membership, _, err := services.VerifyMembership(db, user.ID, docID)
	if err != nil {
		t.Fatalf("Failed to verify membership: %v", err)
	}
	if _, err := services.DeleteComment(db, user, membership, docID, reply.CommentID); err != nil {
		t.Fatalf("Failed to delete reply: %v", err)
	}

	comments, err = services.ListComments(db, docID)
	if err != nil {
		t.Fatalf("Failed to list comments: %v", err)
	}
	if len(comments) != 0 {
		t.Errorf("Expected no active comments, got %d", len(comments))
	}
}

// TestHealthCheck tests the health check functionality
func TestHealthCheck(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// Start MariaDB container
	mariadbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        os.Getenv("DB_IMAGE"),
			ExposedPorts: []string{"3306/tcp"},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": "rootpass",
				"MYSQL_DATABASE":      "testdb",
				"MYSQL_USER":          "testuser",
				"MYSQL_PASSWORD":      "testpass",
			},
			WaitingFor: wait.ForLog("ready for connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start MariaDB container: %v", err)
	}
	defer func() {
		if err := mariadbContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate MariaDB container: %v", err)
		}
	}()

	host, err := mariadbContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := mariadbContainer.MappedPort(ctx, "3306")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cfg := &config.Config{
		DBType:     "mysql",
		DBHost:     host,
		DBPort:     port.Port(),
		DBDatabase: "testdb",
		DBUser:     "testuser",
		DBPassword: "testpass",
		AuthzURL:   "http://localhost:9999", // Non-existent service
	}

	time.Sleep(5 * time.Second)

	db, err := database.Connect(cfg)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run health check
	result := services.HealthCheck(cfg, db)

	// Database should be healthy
	if result.Database != "ok" {
		t.Errorf("Expected database to be ok, got: %s", result.Database)
	}

	// Authorizer should be unreachable
	if result.Authorizer != "unreachable" {
		t.Errorf("Expected authorizer to be unreachable, got: %s", result.Authorizer)
	}

	// Overall status should be unhealthy
	if result.Status != "unhealthy" {
		t.Errorf("Expected status to be unhealthy, got: %s", result.Status)
	}
}
