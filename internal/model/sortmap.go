package model

import "DevHabit/internal/sorting"

// DefaultSortPath orders by primary key when no sort is requested.
const DefaultSortPath = "Id"

var habitSortMappings = []sorting.Mapping{
	{SortField: "name", PropertyName: "Name"},
	{SortField: "type", PropertyName: "Type"},
	{SortField: "description", PropertyName: "Description"},
	{SortField: "status", PropertyName: "Status"},
	{SortField: "isArchived", PropertyName: "IsArchived"},
	{SortField: "endDate", PropertyName: "EndDate"},
	{SortField: "createdAtUtc", PropertyName: "CreatedAtUtc"},
	{SortField: "createdAt", PropertyName: "CreatedAtUtc"},
	{SortField: "updatedAtUtc", PropertyName: "UpdatedAtUtc"},
	{SortField: "updatedAt", PropertyName: "UpdatedAtUtc"},
	{SortField: "lastCompletedAt", PropertyName: "LastCompletedAt"},
	{SortField: "frequency.timesPerPeriod", PropertyName: "Frequency.TimesPerPeriod"},
	{SortField: "frequency.type", PropertyName: "Frequency.Type"},
	{SortField: "target.value", PropertyName: "Target.Value"},
	{SortField: "target.unit", PropertyName: "Target.Unit"},
}

var tagSortMappings = []sorting.Mapping{
	{SortField: "name", PropertyName: "Name"},
	{SortField: "description", PropertyName: "Description"},
	{SortField: "createdAtUtc", PropertyName: "CreatedAtUtc"},
	{SortField: "updatedAtUtc", PropertyName: "UpdatedAtUtc"},
}

// NewSortRegistry registers every (DTO, entity) sort definition.
func NewSortRegistry() (*sorting.Registry, error) {
	r := sorting.NewRegistry()
	if err := sorting.Register[HabitDTO, Habit](r, habitSortMappings...); err != nil {
		return nil, err
	}
	if err := sorting.Register[TagDTO, Tag](r, tagSortMappings...); err != nil {
		return nil, err
	}
	return r, nil
}
