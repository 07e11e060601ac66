package models

// Dataset is everything the engine reads, loaded once per invocation.
type Dataset struct {
	Items     []Item        `json:"items"`
	Snapshots []Snapshot    `json:"snapshots"`
	Logs      []Log         `json:"logs"`
	Vacations []VacationDay `json:"vacations"`
}
