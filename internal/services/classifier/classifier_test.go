package classifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EventPulse/internal/domain/models"
)

func TestClassify(t *testing.T) {
	c := New(nil)
	tests := []struct {
		name string
		form string
		desc string
		want string
	}{
		{"quarterly", "10-Q", "", "Quarterly Financial Report"},
		{"insider", "4", "Statement of changes", "Insider Trading"},
		{"proxy", "DEF 14A", "", "Official Proxy Statement"},
		{"unknown form", "X-99", "", "Other (X-99)"},
		{"8-K leadership", "8-K", "Item 5.02 Departure of Director", "Material Event: Leadership/Director Change"},
		{"8-K earnings lower case", "8-K", "item 2.02 results of operations", "Material Event: Earnings Release"},
		{"8-K priority", "8-K", "Items 8.01 Other Events, Item 1.01 Entry into Agreement, Item 2.02", "Material Event: Earnings Release"},
		{"8-K priority without earnings", "8-K", "Item 9.01, Item 8.01, Item 1.01", "Material Event: Agreement"},
		{"8-K general", "8-K", "Current report", "Material Event (General)"},
		{"8-K empty", "8-K", "", "Material Event (General)"},
		{"8-K unmapped item", "8-K", "Item 9.01 Financial Statements and Exhibits", "Material Event (General)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.form, tt.desc))
		})
	}
}

func TestClassifyFilingUsesItems(t *testing.T) {
	c := New(nil)
	cases := []struct {
		name string
		f    models.RawFiling
		want string
	}{
		{"items column", models.RawFiling{FormCode: "8-K", Description: "8-K", Items: []string{"9.01", "5.02"}}, "Material Event: Leadership/Director Change"},
		{"items and description share priority", models.RawFiling{FormCode: "8-K", Description: "Item 8.01 Other Events", Items: []string{"1.01"}}, "Material Event: Agreement"},
		{"unknown items only", models.RawFiling{FormCode: "8-K", Description: "8-K", Items: []string{"9.01"}}, "Material Event (General)"},
		{"items ignored for other forms", models.RawFiling{FormCode: "10-Q", Items: []string{"2.02"}}, "Quarterly Financial Report"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.ClassifyFiling(tc.f))
		})
	}

	events, err := c.ToEvents([]models.RawFiling{
		{FormCode: "8-K", FilingDate: "2024-03-06", Description: "8-K", Items: []string{"2.02", "9.01"}},
	}, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Material Event: Earnings Release", events[0].Category)
}

func TestIsExcluded(t *testing.T) {
	c := New(nil)
	assert.True(t, c.IsExcluded("Insider Trading"))
	assert.True(t, c.IsExcluded("Employee Stock Plan"))
	assert.False(t, c.IsExcluded("Quarterly Financial Report"))

	none := New([]string{})
	assert.False(t, none.IsExcluded("Insider Trading"))
}

func TestToEventsFiltersAndExcludes(t *testing.T) {
	c := New(nil)
	filings := []models.RawFiling{
		{FormCode: "4", FilingDate: "2024-03-05"},
		{FormCode: "8-K", FilingDate: "2024-03-06", Description: "Item 2.02"},
		{FormCode: "10-Q", FilingDate: "2024-03-07"},
		{FormCode: "10-K", FilingDate: "2023-12-31"},
		{FormCode: "S-8", FilingDate: "2024-03-08"},
		{FormCode: "144", FilingDate: "2024-05-01"},
	}
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	events, err := c.ToEvents(filings, from, to)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "Material Event: Earnings Release", events[0].Category)
	assert.Equal(t, "Item 2.02", events[0].Description)
	assert.Equal(t, "Quarterly Financial Report", events[1].Category)
	assert.Equal(t, "10-Q", events[1].Description)
	assert.Equal(t, time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), events[1].Date)
}

func TestToEventsMalformedDate(t *testing.T) {
	c := New(nil)
	_, err := c.ToEvents([]models.RawFiling{{FormCode: "10-Q", FilingDate: "03/07/2024"}}, time.Time{}, time.Time{})
	require.Error(t, err)
	assert.True(t, models.IsMalformed(err))
}

func TestClassifyItemList(t *testing.T) {
	c := New(nil)
	assert.Equal(t, "Material Event: Leadership/Director Change", c.Classify("8-K", "Items 9.01, 8.01 and 5.02"))
	// bare numbers outside an item reference are ignored
	assert.Equal(t, "Material Event (General)", c.Classify("8-K", "Amendment 2.02 to filing"))
}
