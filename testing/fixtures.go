// Package testing provides test utilities and database setup for testing the matching platform
package testing

import (
	"encoding/base64"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/propmatch/PropMatch/models"
	"github.com/propmatch/PropMatch/utils"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestProfile creates a profile with a random unique email
func (tf *TestFixtures) CreateTestProfile() (*models.Profile, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("TestPass123!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	randomDigits := fmt.Sprintf("%09d", rand.Intn(900000000)+100000000)

	profile := &models.Profile{
		UUID:         uuid.New(),
		Name:         "Jane Buyer",
		Email:        fmt.Sprintf("jane.buyer.%s@example.com", randomDigits),
		Phone:        utils.ToPtr(fmt.Sprintf("+3161%s", randomDigits[:7])),
		PasswordHash: string(hashedPassword),
		IsAdmin:      utils.ToPtr(false),
		IsActive:     utils.ToPtr(true),
	}

	err = tf.DB.DB.Create(profile).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test profile: %w", err)
	}

	return profile, nil
}

// CreateTestProperty creates a property listing
func (tf *TestFixtures) CreateTestProperty(city, propertyType string, price int64, rooms int) (*models.Property, error) {
	property := &models.Property{
		Title:    fmt.Sprintf("Test %s in %s", propertyType, city),
		Price:    price,
		Type:     propertyType,
		Location: fmt.Sprintf("Teststraat %d, %s", rand.Intn(200)+1, city),
		City:     city,
		Size:     50 + rand.Intn(150),
		Rooms:    rooms,
		Image:    utils.ToPtr("https://example.com/property.jpg"),
	}

	err := tf.DB.DB.Create(property).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test property: %w", err)
	}

	return property, nil
}

// CreateTestPreference creates the survey row for a user
func (tf *TestFixtures) CreateTestPreference(userID uint, city, propertyType string, maxPrice int64, bedrooms int) (*models.Preference, error) {
	pref := &models.Preference{
		UserID:       userID,
		City:         &city,
		MaxPrice:     &maxPrice,
		PropertyType: &propertyType,
		Bedrooms:     &bedrooms,
	}

	err := tf.DB.DB.Create(pref).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test preference: %w", err)
	}

	return pref, nil
}

// CreateTestMatch creates a match row linking a user to a property
func (tf *TestFixtures) CreateTestMatch(userID, propertyID uint, score int) (*models.PropertyMatch, error) {
	match := &models.PropertyMatch{
		UserID:     userID,
		PropertyID: propertyID,
		MatchScore: score,
		MatchDetails: models.MatchDetails{
			CityMatch:  true,
			TypeMatch:  true,
			PriceMatch: score >= 75,
		},
		Viewed: utils.ToPtr(false),
	}

	err := tf.DB.DB.Create(match).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test match: %w", err)
	}

	return match, nil
}

func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// CreateTestSession creates a test profile session
func (tf *TestFixtures) CreateTestSession(profileID uint) (*models.ProfileSession, error) {
	sessionToken, err := GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate secure session token: %w", err)
	}

	refreshToken, err := GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate secure refresh token: %w", err)
	}

	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	session := &models.ProfileSession{
		CorrelationID: uuid.New(),
		ProfileID:     profileID,
		SessionToken:  sessionToken,
		RefreshToken:  &refreshToken,
		ExpiresAt:     time.Now().Add(24 * time.Hour),
		IsActive:      utils.ToPtr(true),
		IPAddress:     &ipAddress,
		UserAgent:     &userAgent,
	}

	err = tf.DB.DB.Create(session).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test session: %w", err)
	}

	return session, nil
}

// CreateTestAuditLog creates a test audit log entry
func (tf *TestFixtures) CreateTestAuditLog(profileID *uint, action string, success bool) (*models.AuditLog, error) {
	description := fmt.Sprintf("Test %s action", action)
	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	audit := &models.AuditLog{
		ProfileID:   profileID,
		Action:      action,
		Description: &description,
		Success:     &success,
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	}

	if !success {
		errorMessage := "Test failed action"
		audit.ErrorMessage = &errorMessage
	}

	err := tf.DB.DB.Create(audit).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test audit log: %w", err)
	}

	return audit, nil
}
