package permissions

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed permissions.json
var permissionsData []byte

// Permission is the access rule of one route. Public routes need no token;
// every other route needs one of Roles.
type Permission struct {
	Method string   `json:"method"`
	Path   string   `json:"path"`
	Public bool     `json:"public"`
	Roles  []string `json:"roles"`
}

func (p Permission) Allows(role string) bool {
	return slices.Contains(p.Roles, role)
}

type PermissionData struct {
	Endpoints []Permission `json:"endpoints"`

	index map[string]Permission
}

func key(method, path string) string {
	return method + " " + strings.TrimSuffix(path, "/")
}

// Lookup finds the rule for a chi route pattern. A trailing slash is ignored
// so "/v1/bookings/" and "/v1/bookings" share an entry.
func (r *PermissionData) Lookup(method, path string) (Permission, bool) {
	permission, ok := r.index[key(method, path)]

	return permission, ok
}

// Parse decodes a permissions document and rejects duplicate routes.
func Parse(raw []byte) (*PermissionData, error) {
	var data PermissionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode permissions: %w", err)
	}

	data.index = make(map[string]Permission, len(data.Endpoints))

	for _, endpoint := range data.Endpoints {
		k := key(endpoint.Method, endpoint.Path)
		if _, exists := data.index[k]; exists {
			return nil, fmt.Errorf("duplicate permission for %s", k)
		}

		data.index[k] = endpoint
	}

	return &data, nil
}

// Get returns the embedded route table.
func Get() *PermissionData {
	data, err := Parse(permissionsData)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load embedded permissions")
	}

	log.Info().Int("endpoints", len(data.Endpoints)).Msg("Loaded embedded permissions")

	return data
}
