package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Role is the closed set of caller roles. The zero value is not a valid role.
type Role int

const (
	RoleRequester Role = iota + 1
	RoleAdministrator
)

const (
	roleRequesterName     = "requester"
	roleAdministratorName = "administrator"
)

func ParseRole(value string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case roleRequesterName:
		return RoleRequester, nil
	case roleAdministratorName:
		return RoleAdministrator, nil
	default:
		return 0, fmt.Errorf("unknown role %q", value)
	}
}

func (r Role) String() string {
	switch r {
	case RoleRequester:
		return roleRequesterName
	case RoleAdministrator:
		return roleAdministratorName
	default:
		return ""
	}
}

func (r Role) Valid() bool {
	return r == RoleRequester || r == RoleAdministrator
}

func (r Role) IsAdministrator() bool {
	return r == RoleAdministrator
}

// Value stores the role by name.
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", int(r))
	}

	return r.String(), nil
}

func (r *Role) Scan(src any) error {
	var name string

	switch v := src.(type) {
	case string:
		name = v
	case []byte:
		name = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Role", src)
	}

	parsed, err := ParseRole(name)
	if err != nil {
		return err
	}

	*r = parsed

	return nil
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}

	*r = parsed

	return nil
}
