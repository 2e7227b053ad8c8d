package user

import (
	"time"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/vishvavidya/traininghub/core"
	"github.com/vishvavidya/traininghub/core/identity"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleTrainer = "trainer"
	RoleIntern  = "intern"
	RolePartner = "partner"
)

var (
	AllRoles   = []string{RoleAdmin, RoleManager, RoleTrainer, RoleIntern, RolePartner}
	StaffRoles = []string{RoleAdmin, RoleManager, RoleTrainer}

	// account kind of every sequenced staff role
	roleKinds = map[string]string{
		RoleAdmin:   identity.KindAdmin,
		RoleManager: identity.KindManager,
		RoleTrainer: identity.KindInstructor,
	}
)

// User is a staff account: admin, manager, trainer or partner. Interns log in through their student credentials.
type User struct {
	ID             string    `json:"userid" db:"id"`
	Name           string    `json:"name" db:"name"`
	Email          string    `json:"email" db:"email"`
	Contact        string    `json:"contact_no" db:"contact_no"`
	Role           string    `json:"role" db:"role"`
	Technology     string    `json:"technology" db:"technology"`
	CompanyName    string    `json:"company_name" db:"company_name"`
	CompanyWebsite string    `json:"company_website" db:"company_website"`
	PasswordHash   []byte    `json:"-" db:"password_hash"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	CreatedBy      string    `json:"created_by_userid" db:"created_by_userid"`
	CreatorRole    string    `json:"created_by_role" db:"created_by_role"`
	UpdatedBy      string    `json:"updated_by_userid" db:"updated_by_userid"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"` // UTC
	LastLogin      null.Time `json:"last_login" db:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) Actor() core.Actor { return core.Actor{UserID: u.ID, Role: u.Role} }

// NewStaff contains information needed to create a staff User. Role is set by the endpoint used.
type NewStaff struct {
	Name       string `json:"name" validate:"fullname"`
	Email      string `json:"email" validate:"emailaddr"`
	Contact    string `json:"contact" validate:"contactno"`
	Technology string `json:"technology"`
	Role       string `json:"-" validate:"oneof=admin manager trainer"`
}

func (ns *NewStaff) Clean() {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Contact = core.CleanString(ns.Contact)
	ns.Technology = core.CleanString(ns.Technology)
}

// UpdateStaff contains the editable fields of a staff User. Technology is kept when blank.
type UpdateStaff struct {
	Name       string `json:"name" validate:"fullname"`
	Email      string `json:"email" validate:"emailaddr"`
	Contact    string `json:"contact" validate:"contactno"`
	Technology string `json:"technology"`
}

func (us *UpdateStaff) Clean() {
	us.Name = core.CleanString(us.Name)
	us.Email = core.CleanString(us.Email, true /* lower */)
	us.Contact = core.CleanString(us.Contact)
	us.Technology = core.CleanString(us.Technology)
}

// Credentials is a freshly created account along with its plain initial password.
type Credentials struct {
	User     User   `json:"user"`
	Password string `json:"password"`
}

// Identity is an authenticated principal, staff or intern.
type Identity struct {
	UserID         string `json:"userid"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	CompanyName    string `json:"company_name,omitempty"`
	CompanyWebsite string `json:"company_website,omitempty"`
}

func (id Identity) Actor() core.Actor { return core.Actor{UserID: id.UserID, Role: id.Role} }

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}
