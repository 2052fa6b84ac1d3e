package models

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ROLE_TRAVELER = "traveler"
	ROLE_ADMIN    = "admin"

	PAYMENT_PLAN_GRADUAL = "gradual"
	PAYMENT_PLAN_FULL    = "full"
)

// VerificationCodeTTL is how long an emailed verification code stays valid.
const VerificationCodeTTL = 24 * time.Hour

var (
	ErrAlreadyVerified = errors.New("email already verified")
	ErrInvalidCode     = errors.New("invalid verification code")
	ErrCodeExpired     = errors.New("verification code expired")
)

type User struct {
	ID                     string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email                  string     `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,max=200"`
	Password               string     `gorm:"type:text" json:"-" validate:"required"`
	FirstName              string     `gorm:"type:varchar(100)" json:"firstName" validate:"max=100"`
	LastName               string     `gorm:"type:varchar(100)" json:"lastName" validate:"max=100"`
	Phone                  string     `gorm:"type:varchar(50)" json:"phone" validate:"max=50"`
	Destination            string     `gorm:"type:varchar(150)" json:"destination"`
	TravelDate             *time.Time `gorm:"default:null" json:"travelDate"`
	Purpose                string     `gorm:"type:varchar(100)" json:"purpose"`
	SelectedPlanID         *string    `gorm:"type:varchar(36);index" json:"selectedPlanId"`
	PaymentPlan            string     `gorm:"type:varchar(20)" json:"paymentPlan"`
	HasCompletedOnboarding bool       `gorm:"default:false" json:"hasCompletedOnboarding"`
	IsEmailVerified        bool       `gorm:"default:false" json:"isEmailVerified"`
	VerificationCode       string     `gorm:"type:varchar(6)" json:"-"`
	VerificationCodeExpiry *time.Time `gorm:"default:null" json:"-"`
	Role                   string     `gorm:"type:varchar(20);default:'traveler'" json:"role" validate:"oneof=traveler admin"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// Onboarded is the completed onboarding record of a traveler. A user either
// has all of these facts or none of them.
type Onboarded struct {
	Destination string
	TravelDate  time.Time
	Purpose     string
	PlanID      string
	PaymentPlan string
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = ROLE_TRAVELER
	}
	return nil
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// NewUser builds an unverified traveler with a hashed password and a fresh
// email verification code.
func NewUser(email, password, firstName, lastName, phone string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Password:  pw,
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Phone:     strings.TrimSpace(phone),
		Role:      ROLE_TRAVELER,
	}
	if err := u.IssueVerificationCode(time.Now()); err != nil {
		return nil, err
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == ROLE_ADMIN
}

// HolderName is the name printed on certificates; falls back to the email.
func (u *User) HolderName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		return u.Email
	}
	return name
}

// IssueVerificationCode replaces any pending code with a new 6-digit one.
func (u *User) IssueVerificationCode(now time.Time) error {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return err
	}
	u.VerificationCode = fmt.Sprintf("%06d", n.Int64()+100000)
	expiry := now.Add(VerificationCodeTTL)
	u.VerificationCodeExpiry = &expiry
	return nil
}

// VerifyEmail checks the code and marks the email as verified.
func (u *User) VerifyEmail(code string, now time.Time) error {
	if u.IsEmailVerified {
		return ErrAlreadyVerified
	}
	if u.VerificationCode == "" || u.VerificationCode != strings.TrimSpace(code) {
		return ErrInvalidCode
	}
	if u.VerificationCodeExpiry != nil && now.After(*u.VerificationCodeExpiry) {
		return ErrCodeExpired
	}
	u.IsEmailVerified = true
	u.VerificationCode = ""
	u.VerificationCodeExpiry = nil
	return nil
}

// Onboarding returns the onboarding record, or false while any part of it is
// missing.
func (u *User) Onboarding() (Onboarded, bool) {
	if !u.HasCompletedOnboarding || u.TravelDate == nil || u.SelectedPlanID == nil {
		return Onboarded{}, false
	}
	o := Onboarded{
		Destination: u.Destination,
		TravelDate:  *u.TravelDate,
		Purpose:     u.Purpose,
		PlanID:      *u.SelectedPlanID,
		PaymentPlan: u.PaymentPlan,
	}
	if o.Destination == "" || o.Purpose == "" || o.PlanID == "" || o.PaymentPlan == "" {
		return Onboarded{}, false
	}
	return o, true
}

// CompleteOnboarding writes every onboarding field and the completion flag
// in one step.
func (u *User) CompleteOnboarding(o Onboarded) {
	travelDate := o.TravelDate
	planID := o.PlanID
	u.Destination = o.Destination
	u.TravelDate = &travelDate
	u.Purpose = o.Purpose
	u.SelectedPlanID = &planID
	u.PaymentPlan = o.PaymentPlan
	u.HasCompletedOnboarding = true
}
