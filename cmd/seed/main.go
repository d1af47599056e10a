package main

import (
	"log"
	"os"

	"planner-notebook-be/internal/model"
	"planner-notebook-be/pkg/database"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeds two demo accounts with a worked sharing scenario: Alice owns the
// "Work" folder containing one note, shared with Bob at edit level. The
// folder grant is accompanied by the materialized per-note grant so the
// seeded data matches what the share flow itself would produce.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	color.Cyan("Seeding demo workspace...")

	alice := seedUser(db, "alice@example.com", "Alice Demo", "password123")
	bob := seedUser(db, "bob@example.com", "Bob Demo", "password123")

	folder := seedFolder(db, alice.Id, "Work")
	note := seedNote(db, alice.Id, folder.Id, "Plan", "v1")

	seedFolderGrant(db, folder.Id, bob.Id, alice.Id)
	seedNoteGrant(db, note.Id, bob.Id, alice.Id)

	color.Green("✅ Success: Seeded users alice@example.com / bob@example.com (password123).")
}

func seedUser(db *gorm.DB, email, fullName, password string) model.User {
	var existing model.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		log.Printf("User %s already exists, skipping", email)
		return existing
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Error: Failed to hash password: %v", err)
	}
	hashStr := string(hash)

	user := model.User{
		Id:           uuid.New(),
		Email:        email,
		PasswordHash: &hashStr,
		FullName:     fullName,
		Status:       "active",
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("Error: Failed to create user %s: %v", email, err)
	}
	return user
}

func seedFolder(db *gorm.DB, ownerId uuid.UUID, name string) model.Folder {
	var existing model.Folder
	if err := db.Where("user_id = ? AND name = ?", ownerId, name).First(&existing).Error; err == nil {
		return existing
	}

	folder := model.Folder{
		Id:     uuid.New(),
		Name:   name,
		Icon:   "briefcase",
		Color:  "blue",
		UserId: ownerId,
	}
	if err := db.Create(&folder).Error; err != nil {
		log.Fatalf("Error: Failed to create folder %s: %v", name, err)
	}
	return folder
}

func seedNote(db *gorm.DB, ownerId, folderId uuid.UUID, title, content string) model.Note {
	var existing model.Note
	if err := db.Where("user_id = ? AND title = ?", ownerId, title).First(&existing).Error; err == nil {
		return existing
	}

	note := model.Note{
		Id:       uuid.New(),
		Title:    title,
		Content:  content,
		FolderId: &folderId,
		UserId:   ownerId,
		Color:    "yellow",
	}
	if err := db.Create(&note).Error; err != nil {
		log.Fatalf("Error: Failed to create note %s: %v", title, err)
	}
	return note
}

func seedFolderGrant(db *gorm.DB, folderId, userId, invitedBy uuid.UUID) {
	var existing model.FolderCollaborator
	if err := db.Where("folder_id = ? AND user_id = ?", folderId, userId).First(&existing).Error; err == nil {
		return
	}

	grant := model.FolderCollaborator{
		Id:         uuid.New(),
		FolderId:   folderId,
		UserId:     userId,
		Permission: "edit",
		InvitedBy:  invitedBy,
	}
	if err := db.Create(&grant).Error; err != nil {
		log.Fatalf("Error: Failed to create folder grant: %v", err)
	}
}

func seedNoteGrant(db *gorm.DB, noteId, userId, invitedBy uuid.UUID) {
	var existing model.NoteCollaborator
	if err := db.Where("note_id = ? AND user_id = ?", noteId, userId).First(&existing).Error; err == nil {
		return
	}

	grant := model.NoteCollaborator{
		Id:         uuid.New(),
		NoteId:     noteId,
		UserId:     userId,
		Permission: "edit",
		InvitedBy:  invitedBy,
	}
	if err := db.Create(&grant).Error; err != nil {
		log.Fatalf("Error: Failed to create note grant: %v", err)
	}
}
