package council

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/matheusbuniotto/openwebui-tools/internal/events"
)

// roster is the outcome of resolving the configured model references against
// the live catalog.
type roster struct {
	// members are the models queried in stages 1 and 2, in issuance order.
	members []string
	// chairperson performs the stage-3 synthesis.
	chairperson string
	// available is the live catalog; nil when the catalog fetch failed.
	available []string
}

// fetchCatalog lists the upstream models. Best effort: a failed fetch is
// logged and reported as an absent catalog, never as an error.
func (c *Council) fetchCatalog(ctx context.Context) []string {
	available, err := c.client.ListModels(ctx)
	if err != nil {
		log.Printf("Error fetching available models: %v", err)
		return nil
	}
	return available
}

// resolveRoster turns the configured model string into the effective
// council. "all" takes the catalog capped at MaxModels; an explicit list is
// filtered against the catalog, except that an unavailable catalog is
// trusted fail-open. An empty result is a terminal error.
func (c *Council) resolveRoster(ctx context.Context) (roster, error) {
	available := c.fetchCatalog(ctx)

	var members []string
	if strings.ToLower(strings.TrimSpace(c.settings.Models)) == "all" {
		if len(available) == 0 {
			return roster{}, fmt.Errorf("council models set to 'all', but could not fetch available models from API")
		}
		members = available
		if len(members) > c.settings.MaxModels {
			members = members[:c.settings.MaxModels]
			events.Emit(c.emit, events.Status("info",
				fmt.Sprintf("Limiting council to %d models (of %d available).", c.settings.MaxModels, len(available)),
				false))
		}
	} else {
		var requested []string
		for _, m := range strings.Split(c.settings.Models, ",") {
			if m = strings.TrimSpace(m); m != "" {
				requested = append(requested, m)
			}
		}

		if len(available) > 0 {
			var missing []string
			for _, m := range requested {
				if contains(available, m) {
					members = append(members, m)
				} else {
					missing = append(missing, m)
				}
			}
			if len(missing) > 0 {
				events.Emit(c.emit, events.Status("info",
					fmt.Sprintf("Warning: The following models were not found and will be skipped: %s", strings.Join(missing, ", ")),
					false))
			}
			if len(members) == 0 {
				return roster{}, fmt.Errorf("none of the requested models (%s) are available", strings.Join(requested, ", "))
			}
		} else {
			// Catalog unknown: trust the configured list verbatim.
			events.Emit(c.emit, events.Status("info",
				"Could not verify models with API, proceeding with configured list.", false))
			members = requested
		}
	}

	if len(members) == 0 {
		return roster{}, fmt.Errorf("no council models configured or found")
	}

	chairperson := c.settings.Chairperson
	if chairperson == "" {
		chairperson = members[0]
	}
	if len(available) > 0 && !contains(available, chairperson) {
		events.Emit(c.emit, events.Status("info",
			fmt.Sprintf("Warning: Chairperson model '%s' not found in available models. Trying anyway...", chairperson),
			false))
	}

	return roster{members: members, chairperson: chairperson, available: available}, nil
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}
