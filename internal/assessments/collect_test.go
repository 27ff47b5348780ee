// File: internal/assessments/collect_test.go
package assessments

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/assessment-export/api/schemas"
	"github.com/xkilldash9x/assessment-export/internal/hierarchy"
)

type mockLister struct {
	mock.Mock
}

func (m *mockLister) ListAssessments(ctx context.Context, businessUnitID string) ([]schemas.Assessment, error) {
	args := m.Called(ctx, businessUnitID)
	if v := args.Get(0); v != nil {
		return v.([]schemas.Assessment), args.Error(1)
	}
	return nil, args.Error(1)
}

func assessment(bu, id string) schemas.Assessment {
	return schemas.Assessment{BusinessUnitID: bu, AssessmentID: id, AssessmentName: schemas.Some(id)}
}

func testTree() *hierarchy.Tree {
	return hierarchy.Flatten([]schemas.BusinessUnit{
		{ID: "r1", Name: schemas.Some("Root One"), Children: []schemas.BusinessUnit{{ID: "c1", Name: schemas.Some("Child")}}},
		{ID: "r2", Name: schemas.Some("Root Two")},
	})
}

func TestCollect(t *testing.T) {
	t.Run("concatenates in unit order", func(t *testing.T) {
		// Arrange
		ctx := context.Background()
		lister := new(mockLister)
		lister.On("ListAssessments", ctx, "r1").Return([]schemas.Assessment{assessment("r1", "a"), assessment("r1", "b")}, nil).Once()
		lister.On("ListAssessments", ctx, "r2").Return([]schemas.Assessment{}, nil).Once()
		lister.On("ListAssessments", ctx, "c1").Return([]schemas.Assessment{assessment("c1", "c")}, nil).Once()
		core, logs := observer.New(zap.InfoLevel)

		// Act
		got, err := Collect(ctx, lister, testTree().Nodes(), zap.New(core))

		// Assert
		require.NoError(t, err)
		var order []string
		for _, a := range got {
			order = append(order, a.AssessmentID)
		}
		assert.Equal(t, []string{"a", "b", "c"}, order)
		lister.AssertExpectations(t)
		assert.Equal(t, 1, logs.FilterMessage("Found 2 Assessment(s)").Len())
		assert.Equal(t, 3, logs.FilterMessage("Getting Assessments").Len())
	})

	t.Run("listing failure is fatal", func(t *testing.T) {
		ctx := context.Background()
		boom := errors.New("503 from server")
		lister := new(mockLister)
		lister.On("ListAssessments", ctx, "r1").Return([]schemas.Assessment{assessment("r1", "a")}, nil)
		lister.On("ListAssessments", ctx, "r2").Return(nil, boom)

		got, err := Collect(ctx, lister, testTree().Nodes(), zap.NewNop())

		assert.Nil(t, got)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), `"Root Two"`)
		lister.AssertNotCalled(t, "ListAssessments", ctx, "c1")
	})

	t.Run("no units", func(t *testing.T) {
		got, err := Collect(context.Background(), new(mockLister), nil, zap.NewNop())
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := Collect(ctx, new(mockLister), testTree().Nodes(), zap.NewNop())
		assert.ErrorIs(t, err, context.Canceled)
	})
}
