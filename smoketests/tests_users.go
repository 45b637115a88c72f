package smoketests

import (
	"fmt"
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/launchdarkly/test-scaffold/fixtures"
	"github.com/launchdarkly/test-scaffold/framework"
	"github.com/launchdarkly/test-scaffold/orchestrator"
)

func (s *suite) doUserTests(t *framework.Context) {
	s.run(t, "create and fetch", orchestrator.API, func(in *orchestrator.TestInputs) {
		user, err := in.Data.CreateUser(in.Ctx, ldvalue.ObjectBuild().Set("name", ldvalue.String("Smoke Tester")).Build())
		require.NoError(in.T, err)

		resp, err := s.eventually(in, fixtures.UsersPath+"/"+user.ID, http.StatusOK)
		require.NoError(in.T, err)
		fetched, err := resp.JSON()
		require.NoError(in.T, err)
		assert.Equal(in.T, "Smoke Tester", fetched.GetByKey("name").StringValue())
		assert.Equal(in.T, user.Data.GetByKey("email").StringValue(), fetched.GetByKey("email").StringValue())
		assert.True(in.T, fetched.GetByKey("password").IsNull(), "password should not be returned")
	})

	s.run(t, "duplicate email is rejected", orchestrator.API, func(in *orchestrator.TestInputs) {
		email := fmt.Sprintf("dup-%s@example.com", s.runID)
		overrides := ldvalue.ObjectBuild().Set("email", ldvalue.String(email)).Build()
		_, err := in.Data.CreateUser(in.Ctx, overrides)
		require.NoError(in.T, err)

		_, err = in.Data.CreateUser(in.Ctx, overrides)
		require.Error(in.T, err)
		assert.ErrorIs(in.T, err, fixtures.ErrEntityCreationFailed)
		assert.Len(in.T, in.Data.TestContext().CreatedEntities(), 1)
	})

	s.run(t, "deleted user is gone", orchestrator.API, func(in *orchestrator.TestInputs) {
		user, err := in.Data.CreateUser(in.Ctx, ldvalue.Null())
		require.NoError(in.T, err)

		require.NoError(in.T, in.Step("delete user", func() error { return user.Cleanup(in.Ctx) }))
		_, err = s.eventually(in, fixtures.UsersPath+"/"+user.ID, http.StatusNotFound)
		require.NoError(in.T, err)
		// the builder deletes it again at the end of the test, which must be harmless
	})
}
