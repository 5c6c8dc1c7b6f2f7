package discovery

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"dev.hon.one/netcrawl/common"
)

// FilterRule - Neighbor field name to the set of accepted alternatives.
type FilterRule map[string][]string

// NeighborFilter - Include/exclude predicate over neighbor records.
type NeighborFilter struct {
	Required   FilterRule
	Excluded   FilterRule
	ExactMatch bool
}

// DefaultNeighborFilter - The filter of the default config, keeping routers and switches
// and dropping hosts and phones.
func DefaultNeighborFilter() *NeighborFilter {
	return NewNeighborFilter(common.DefaultConfig().NeighborFilter)
}

// NewNeighborFilter - Build a filter from its config representation.
func NewNeighborFilter(config common.FilterConfig) *NeighborFilter {
	return &NeighborFilter{
		Required:   newFilterRule(config.Required),
		Excluded:   newFilterRule(config.Excluded),
		ExactMatch: config.ExactMatch,
	}
}

func newFilterRule(lists map[string]common.StringList) FilterRule {
	if lists == nil {
		return nil
	}
	rule := make(FilterRule, len(lists))
	for field, alternatives := range lists {
		rule[field] = alternatives
	}
	return rule
}

func (filter *NeighborFilter) String() string {
	return fmt.Sprintf("required=%v excluded=%v exact_match=%v", filter.Required, filter.Excluded, filter.ExactMatch)
}

// Apply - Return the records which satisfy all required rules and no excluded rule.
// The input slice is not modified.
func (filter *NeighborFilter) Apply(records []common.NeighborRecord) []common.NeighborRecord {
	if filter == nil {
		return records
	}
	kept := make([]common.NeighborRecord, 0, len(records))
	for _, record := range records {
		if filter.Keep(record) {
			kept = append(kept, record)
		}
	}
	return kept
}

// Keep - Check a single record.
func (filter *NeighborFilter) Keep(record common.NeighborRecord) bool {
	for field, expected := range filter.Required {
		values, found := record.Field(field)
		if !found {
			log.WithFields(log.Fields{
				"neighbor": record.Hostname,
				"field":    field,
			}).Debug("Neighbor is missing required filter field")
			return false
		}
		if !filter.matches(field, values, expected) {
			return false
		}
	}
	for field, expected := range filter.Excluded {
		values, found := record.Field(field)
		if !found {
			continue
		}
		if filter.matches(field, values, expected) {
			return false
		}
	}
	return true
}

// Exact matching compares whole values. Otherwise an alternative matches a scalar value
// if it is a substring of it and a set value if it is one of its elements.
func (filter *NeighborFilter) matches(field string, values []string, expected []string) bool {
	multiValued := common.IsMultiValued(field)
	for _, alternative := range expected {
		for _, value := range values {
			if filter.ExactMatch || multiValued {
				if value == alternative {
					return true
				}
			} else if strings.Contains(value, alternative) {
				return true
			}
		}
	}
	return false
}
