package smoketests

import (
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/launchdarkly/test-scaffold/apiclient"
	"github.com/launchdarkly/test-scaffold/fixtures"
	"github.com/launchdarkly/test-scaffold/framework"
	"github.com/launchdarkly/test-scaffold/framework/container"
	"github.com/launchdarkly/test-scaffold/orchestrator"
)

const mePath = "/api/me"

func (s *suite) doAuthenticationTests(t *framework.Context) {
	s.run(t, "new user can log in", orchestrator.API, func(in *orchestrator.TestInputs) {
		user, err := in.Data.CreateUser(in.Ctx, ldvalue.Null())
		require.NoError(in.T, err)
		client, err := container.ResolveAs[*apiclient.HTTPClient](in.Scope, container.TokenAPIClient)
		require.NoError(in.T, err)

		authed, err := apiclient.Authenticate(in.Ctx, client, apiclient.Credentials{
			Email:    user.Data.GetByKey("email").StringValue(),
			Password: fixtures.DefaultPassword,
		})
		require.NoError(in.T, err)
		resp, err := authed.Get(in.Ctx, mePath)
		require.NoError(in.T, err)
		require.Equal(in.T, http.StatusOK, resp.Status)
		me, err := resp.JSON()
		require.NoError(in.T, err)
		assert.Equal(in.T, user.ID, me.GetByKey("id").StringValue())
	})

	s.run(t, "wrong password is rejected", orchestrator.API, func(in *orchestrator.TestInputs) {
		user, err := in.Data.CreateUser(in.Ctx, ldvalue.Null())
		require.NoError(in.T, err)

		_, err = apiclient.Login(in.Ctx, in.Request, apiclient.Credentials{
			Email:    user.Data.GetByKey("email").StringValue(),
			Password: "not-" + fixtures.DefaultPassword,
		})
		assert.ErrorIs(in.T, err, apiclient.ErrAuthenticationFailed)
	})

	s.run(t, "anonymous request is rejected", orchestrator.API, func(in *orchestrator.TestInputs) {
		resp, err := in.Request.Get(in.Ctx, mePath)
		require.NoError(in.T, err)
		assert.Equal(in.T, http.StatusUnauthorized, resp.Status)
	})

	creds, haveCreds := s.cfg.Credentials()
	t.Run("configured account", func(t *framework.Context) {
		if !haveCreds {
			t.SkipWithReason(ErrNoCredentials.Error())
		}
		s.run(t, "identity", orchestrator.AuthenticatedAPI, func(in *orchestrator.TestInputs) {
			resp, err := in.Request.Get(in.Ctx, mePath)
			require.NoError(in.T, err)
			require.Equal(in.T, http.StatusOK, resp.Status)
			me, err := resp.JSON()
			require.NoError(in.T, err)
			assert.Equal(in.T, creds.Email, me.GetByKey("email").StringValue())
		})

		s.run(t, "creates an order for itself", orchestrator.AuthenticatedAPI, func(in *orchestrator.TestInputs) {
			resp, err := in.Request.Get(in.Ctx, mePath)
			require.NoError(in.T, err)
			me, err := resp.JSON()
			require.NoError(in.T, err)

			product, err := in.Data.CreateProduct(in.Ctx, ldvalue.Null())
			require.NoError(in.T, err)
			order, err := in.Data.CreateOrder(in.Ctx, me.GetByKey("id").StringValue(), []string{product.ID}, ldvalue.Null())
			require.NoError(in.T, err)
			assert.Equal(in.T, "pending", order.Data.GetByKey("status").StringValue())
		})
	})
}
