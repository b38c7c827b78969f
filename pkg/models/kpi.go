package models

import "fmt"

// KPIRecord is one row of the ONC Regional Extension Center KPI dataset:
// provider counts at each EHR adoption milestone for a county and period.
// Nil counts were reported as "NA".
type KPIRecord struct {
	State      string `json:"state"`
	StateCode  string `json:"state_code"`
	CountyName string `json:"county_name"`
	StateFIPS  string `json:"state_fips"`
	CountyFIPS string `json:"county_fips"`
	FIPS       string `json:"fips"`   // state_fips + county_fips
	Period     string `json:"period"` // e.g. "2013-01"

	NumProvidersSignedUp                 *int `json:"num_providers_signed_up"`
	NumPrimaryCareProvidersSignedUp      *int `json:"num_primary_care_providers_signed_up"`
	NumProvidersGoLive                   *int `json:"num_providers_go_live"`
	NumPrimaryCareProvidersGoLive        *int `json:"num_primary_care_providers_go_live"`
	NumProvidersMeaningfulUse            *int `json:"num_providers_meaningful_use"`
	NumPrimaryCareProvidersMeaningfulUse *int `json:"num_primary_care_providers_meaningful_use"`
}

// StateKey returns the (state, state code, state FIPS) triple of the record.
func (r KPIRecord) StateKey() StateKey {
	return StateKey{State: r.State, StateCode: r.StateCode, StateFIPS: r.StateFIPS}
}

// StateKey identifies a state. It is comparable and safe to use as a map key.
type StateKey struct {
	State     string `json:"state"`
	StateCode string `json:"state_code"`
	StateFIPS string `json:"state_fips"`
}

// String renders the triple as "(State, StateCode, StateFIPS)".
func (k StateKey) String() string {
	return fmt.Sprintf("(%s, %s, %s)", k.State, k.StateCode, k.StateFIPS)
}
