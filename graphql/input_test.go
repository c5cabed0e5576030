package graphql_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florianilch/linear-go/graphql"
)

type issueUpdate struct {
	Title   graphql.Optional[string] `json:"title,omitzero"`
	DueDate graphql.Optional[string] `json:"dueDate,omitzero"`
	Points  graphql.Optional[int]    `json:"points,omitzero"`
}

func TestOptionalMarshal(t *testing.T) {
	tests := []struct {
		name  string
		input issueUpdate
		want  string
	}{
		{
			name:  "unset fields are omitted",
			input: issueUpdate{},
			want:  `{}`,
		},
		{
			name:  "set field is sent",
			input: issueUpdate{Title: graphql.Some("Renamed")},
			want:  `{"title":"Renamed"}`,
		},
		{
			name:  "null clears a field",
			input: issueUpdate{DueDate: graphql.Null[string]()},
			want:  `{"dueDate":null}`,
		},
		{
			name: "mixed",
			input: issueUpdate{
				Title:   graphql.Some("Renamed"),
				DueDate: graphql.Null[string](),
				Points:  graphql.Some(3),
			},
			want: `{"title":"Renamed","dueDate":null,"points":3}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.input)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestOptionalUnmarshal(t *testing.T) {
	var update issueUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Renamed","dueDate":null}`), &update))

	title, ok := update.Title.Value()
	assert.True(t, ok)
	assert.Equal(t, "Renamed", title)

	assert.True(t, update.DueDate.IsNull())
	_, ok = update.DueDate.Value()
	assert.False(t, ok)

	assert.True(t, update.Points.IsZero())
}

func TestOptionalValue(t *testing.T) {
	v, ok := graphql.Some(42).Value()
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	_, ok = graphql.Null[int]().Value()
	assert.False(t, ok)

	var unset graphql.Optional[int]
	_, ok = unset.Value()
	assert.False(t, ok)
	assert.True(t, unset.IsZero())
	assert.False(t, unset.IsNull())
}
