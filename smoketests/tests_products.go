package smoketests

import (
	"fmt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/launchdarkly/test-scaffold/fixtures"
	"github.com/launchdarkly/test-scaffold/framework"
	"github.com/launchdarkly/test-scaffold/orchestrator"
)

func (s *suite) doProductTests(t *framework.Context) {
	s.run(t, "create several in sequence", orchestrator.API, func(in *orchestrator.TestInputs) {
		sku := func(i int) string { return fmt.Sprintf("SKU-%s-%d", s.runID, i) }
		products, err := in.Data.CreateEntities(in.Ctx, fixtures.TypeProduct, 3, func(i int) ldvalue.Value {
			return ldvalue.ObjectBuild().Set("sku", ldvalue.String(sku(i))).Build()
		})
		require.NoError(in.T, err)
		require.Len(in.T, products, 3)
		for i, p := range products {
			assert.Equal(in.T, sku(i), p.Data.GetByKey("sku").StringValue())
		}
	})

	s.run(t, "non-numeric price is rejected", orchestrator.API, func(in *orchestrator.TestInputs) {
		_, err := in.Data.CreateProduct(in.Ctx, ldvalue.ObjectBuild().Set("price", ldvalue.String("free")).Build())
		require.Error(in.T, err)
		assert.ErrorIs(in.T, err, fixtures.ErrEntityCreationFailed)
		assert.Len(in.T, in.Data.TestContext().CreatedEntities(), 0)
	})
}
