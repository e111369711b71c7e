// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"warbler/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	rand *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:   db,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll wipes seeded data in dependency order.
func (f *Factory) ClearAll() error {
	for _, model := range []any{
		&models.Like{}, &models.Follow{}, &models.Message{}, &models.User{},
	} {
		if err := f.db.Where("1 = 1").Delete(model).Error; err != nil {
			return fmt.Errorf("clearing %T: %w", model, err)
		}
	}
	return nil
}

// CreateUser constructs and persists a sample user. All seeded users share
// the password "password123". Optional override functions may modify the
// generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	user := &models.User{
		Username:       gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:          gofakeit.Email(),
		Password:       string(hashed),
		Bio:            gofakeit.Sentence(10),
		Location:       gofakeit.City(),
		ImageURL:       fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		HeaderImageURL: models.DefaultHeaderImageURL,
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateMessage constructs and persists a message for the given user with a
// created_at spread over the past maxDays days.
func (f *Factory) CreateMessage(user *models.User, maxDays int, overrides ...func(*models.Message)) (*models.Message, error) {
	text := gofakeit.Sentence(f.rand.Intn(12) + 3)
	if len(text) > models.MaxMessageLength {
		text = text[:models.MaxMessageLength]
	}

	message := &models.Message{
		Text:   text,
		UserID: user.ID,
	}

	if maxDays > 0 {
		back := time.Duration(f.rand.Intn(maxDays*24*60)) * time.Minute
		message.CreatedAt = time.Now().Add(-back)
	}

	for _, override := range overrides {
		override(message)
	}

	if err := f.db.Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

// SeedSocialMesh creates numUsers users and wires a random follow graph
// between them. Each user follows roughly a quarter of the others.
func (f *Factory) SeedSocialMesh(numUsers int) ([]*models.User, error) {
	users := make([]*models.User, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("creating user %d: %w", i, err)
		}
		users = append(users, user)
	}
	log.Printf("✓ Created %d users", len(users))

	follows := 0
	for _, follower := range users {
		for _, followed := range users {
			if follower.ID == followed.ID || f.rand.Intn(4) != 0 {
				continue
			}
			edge := &models.Follow{FollowerID: follower.ID, FollowedID: followed.ID}
			if err := f.db.Create(edge).Error; err != nil {
				return nil, fmt.Errorf("creating follow edge: %w", err)
			}
			follows++
		}
	}
	log.Printf("✓ Created %d follow edges", follows)

	return users, nil
}

// SeedEngagement creates numMessages messages spread across the users and a
// random set of likes on them. A user never likes their own message.
func (f *Factory) SeedEngagement(users []*models.User, numMessages int) error {
	if len(users) == 0 {
		return nil
	}

	messages := make([]*models.Message, 0, numMessages)
	for i := 0; i < numMessages; i++ {
		author := users[f.rand.Intn(len(users))]
		message, err := f.CreateMessage(author, 90)
		if err != nil {
			return fmt.Errorf("creating message %d: %w", i, err)
		}
		messages = append(messages, message)
	}
	log.Printf("✓ Created %d messages", len(messages))

	likes := 0
	for _, message := range messages {
		for _, user := range users {
			if user.ID == message.UserID || f.rand.Intn(8) != 0 {
				continue
			}
			like := &models.Like{UserID: user.ID, MessageID: message.ID}
			if err := f.db.Create(like).Error; err != nil {
				return fmt.Errorf("creating like: %w", err)
			}
			likes++
		}
	}
	log.Printf("✓ Created %d likes", likes)

	return nil
}
