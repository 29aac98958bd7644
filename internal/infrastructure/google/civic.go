package google

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"LocalNewsMapper/internal/domain"
	"LocalNewsMapper/internal/ports"
)

// DefaultCivicURL is the Civic Information representatives endpoint.
const DefaultCivicURL = "https://www.googleapis.com/civicinfo/v2/representatives"

var legislatorRoles = []string{"legislatorLowerBody", "legislatorUpperBody"}

// CivicClient looks up the federal legislators of an address.
type CivicClient struct {
	api *apiClient
}

var _ ports.CivicInfo = (*CivicClient)(nil)

// NewCivicClient builds a rate-limited civic information client.
func NewCivicClient(opts Options, logger *slog.Logger) *CivicClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultCivicURL
	}
	return &CivicClient{api: newAPIClient(opts, logger)}
}

// Representatives returns the raw JSON answer for address, restricted to
// both legislative chambers.
func (c *CivicClient) Representatives(ctx context.Context, address string) ([]byte, error) {
	body, err := c.api.get(ctx,
		map[string]string{"address": address},
		map[string][]string{"roles": legislatorRoles},
	)
	if err != nil {
		return nil, fmt.Errorf("representatives for %q: %w", address, err)
	}
	return body, nil
}

type civicPayload struct {
	Offices *[]struct {
		Name            string `json:"name"`
		DivisionID      string `json:"divisionId"`
		OfficialIndices []int  `json:"officialIndices"`
	} `json:"offices"`
	Officials []struct {
		Name  string  `json:"name"`
		Party *string `json:"party"`
	} `json:"officials"`
}

// ApplyCivicInfo registers the officials found in payload and links them to site.
// A payload without offices adds nothing; vacant seats are recorded with the
// domain.VacantSeat sentinel. It returns the number of officials linked.
func ApplyCivicInfo(reg *domain.Registry, site *domain.Site, payload []byte) (int, error) {
	var parsed civicPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return 0, fmt.Errorf("decode civic payload for %s: %w", site.URL, err)
	}
	if parsed.Offices == nil {
		return 0, nil
	}

	linked := 0
	for _, office := range *parsed.Offices {
		state := strings.ToUpper(prefixAfter(office.DivisionID, "state:", 2))
		district := prefixAfter(office.DivisionID, "cd:", 2)

		for _, i := range office.OfficialIndices {
			if i < 0 || i >= len(parsed.Officials) {
				continue
			}
			person := parsed.Officials[i]
			if strings.EqualFold(person.Name, domain.VacantSeat) {
				site.Officials.Add(domain.VacantSeat)
				continue
			}
			official := reg.UpsertOfficial(state, person.Name, office.Name, district, person.Party)
			site.Officials.Add(official.Key())
			linked++
		}
	}
	return linked, nil
}

// prefixAfter returns up to n characters following the first marker in s.
func prefixAfter(s, marker string, n int) string {
	_, rest, found := strings.Cut(s, marker)
	if !found {
		return ""
	}
	if len(rest) > n {
		rest = rest[:n]
	}
	return rest
}
