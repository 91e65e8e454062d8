package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/yukikurage/household-api/internal/realtime"
	"github.com/yukikurage/household-api/internal/repository"
	"github.com/yukikurage/household-api/internal/services"
	"go.uber.org/zap"
)

func (suite *HandlerTestSuite) TestWebsocket_MountedBesideRouter() {
	store := repository.NewStore(suite.db)
	guard := services.NewMembershipGuard(store)
	hub := realtime.NewHub(zap.NewNop())
	srv := httptest.NewServer(Mount(suite.router, realtime.NewHandler(hub, suite.tokens, guard, zap.NewNop(), nil)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	suite.Require().NoError(err)
	resp.Body.Close()
	suite.Equal(http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + suite.tokenFor(suite.member)
	conn, _, err := websocket.Dial(ctx, url, nil)
	suite.Require().NoError(err)
	defer conn.CloseNow()

	householdRoom := realtime.HouseholdChannel(suite.household.ID)
	suite.Require().Eventually(func() bool {
		return hub.RoomSize(householdRoom) == 1
	}, time.Second, 10*time.Millisecond)

	households := services.NewHouseholdService(store, guard, hub, suite.mailer, zap.NewNop())
	suite.Require().NoError(households.LeaveHousehold(ctx, suite.household.ID, suite.member.ID))

	suite.Require().Eventually(func() bool {
		return hub.RoomSize(householdRoom) == 0
	}, time.Second, 10*time.Millisecond)
	suite.Equal(1, hub.RoomSize(realtime.UserChannel(suite.member.ID)))
}

func (suite *HandlerTestSuite) TestWebsocket_RejectsMissingToken() {
	hub := realtime.NewHub(zap.NewNop())
	guard := services.NewMembershipGuard(repository.NewStore(suite.db))
	srv := httptest.NewServer(Mount(suite.router, realtime.NewHandler(hub, suite.tokens, guard, zap.NewNop(), nil)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ws")
	suite.Require().NoError(err)
	resp.Body.Close()
	suite.Equal(http.StatusUnauthorized, resp.StatusCode)
	suite.Equal(0, hub.ClientCount())
}
