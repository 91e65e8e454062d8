package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/household-api/internal/logging"
	"github.com/yukikurage/household-api/internal/metrics"
	"github.com/yukikurage/household-api/internal/middleware"
	"go.uber.org/zap"
)

// RouterDeps collects everything the HTTP surface is built from.
type RouterDeps struct {
	Logger        *zap.Logger
	Tokens        middleware.TokenVerifier
	AuthLimiter   *middleware.RateLimiter
	CORSOrigins   []string
	Health        *HealthHandler
	Auth          *AuthHandler
	Households    *HouseholdHandler
	Chores        *ChoreHandler
	Events        *EventHandler
	Expenses      *ExpenseHandler
	Threads       *ThreadHandler
	Notifications *NotificationHandler
}

// Mount serves the websocket endpoint on /ws and everything else through
// engine. The upgrade must hijack the raw connection, so /ws stays off gin.
func Mount(engine *gin.Engine, ws http.Handler) http.Handler {
	if ws == nil {
		return engine
	}
	mux := http.NewServeMux()
	mux.Handle("/ws", ws)
	mux.Handle("/", engine)
	return mux
}

// NewRouter registers every route on a fresh gin engine.
func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.Recovery(d.Logger),
		middleware.TraceID(),
		logging.GinLogger(d.Logger),
		middleware.Metrics(),
		middleware.CORS(d.CORSOrigins),
	)

	r.GET("/health", d.Health.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	requireAuth := middleware.RequireAuth(d.Tokens)
	api := r.Group("/api")

	authRoutes := api.Group("/auth")
	if d.AuthLimiter != nil {
		authRoutes.Use(d.AuthLimiter.Handler())
	}
	{
		authRoutes.POST("/register", d.Auth.Register)
		authRoutes.POST("/login", d.Auth.Login)
		authRoutes.POST("/refresh", d.Auth.Refresh)
		authRoutes.POST("/logout", d.Auth.Logout)
		authRoutes.GET("/me", requireAuth, d.Auth.GetCurrentUser)
	}

	api.PATCH("/users/me", requireAuth, d.Auth.UpdateProfile)

	notifications := api.Group("/notifications", requireAuth)
	{
		notifications.GET("", d.Notifications.ListNotifications)
		notifications.PATCH("/read-all", d.Notifications.MarkAllAsRead)
		notifications.PATCH("/:notificationId/read", d.Notifications.MarkAsRead)
		notifications.DELETE("/:notificationId", d.Notifications.DeleteNotification)
	}

	api.GET("/push/public-key", d.Notifications.PushPublicKey)
	push := api.Group("/push", requireAuth)
	{
		push.POST("/subscriptions", d.Notifications.SaveSubscription)
		push.DELETE("/subscriptions", d.Notifications.DeleteSubscription)
	}

	households := api.Group("/households", requireAuth)
	{
		households.GET("", d.Households.ListHouseholds)
		households.POST("", d.Households.CreateHousehold)
		households.GET("/invitations", d.Households.ListInvitations)
	}

	hh := households.Group("/:householdId")
	{
		hh.GET("", d.Households.GetHousehold)
		hh.PATCH("", d.Households.UpdateHousehold)
		hh.DELETE("", d.Households.DeleteHousehold)
		hh.POST("/active", d.Households.SetActiveHousehold)
		hh.GET("/members", d.Households.ListMembers)
		hh.POST("/members", d.Households.AddMember)
		hh.PATCH("/members/:memberId", d.Households.UpdateMemberRole)
		hh.DELETE("/members/:memberId", d.Households.RemoveMember)
		hh.POST("/invitation", d.Households.RespondToInvitation)
		hh.POST("/leave", d.Households.LeaveHousehold)
		hh.POST("/invite-email", d.Households.SendInvitationEmail)

		hh.GET("/notification-settings", d.Notifications.GetSettings)
		hh.PUT("/notification-settings", d.Notifications.UpdateSettings)
	}

	chores := hh.Group("/chores")
	{
		chores.GET("", d.Chores.ListChores)
		chores.POST("", d.Chores.CreateChore)
		chores.POST("/suggest", d.Chores.SuggestChores)
		chores.GET("/:choreId", d.Chores.GetChore)
		chores.PATCH("/:choreId", d.Chores.UpdateChore)
		chores.DELETE("/:choreId", d.Chores.DeleteChore)
		chores.GET("/:choreId/history", d.Chores.GetHistory)
		chores.GET("/:choreId/subtasks", d.Chores.ListSubtasks)
		chores.POST("/:choreId/subtasks", d.Chores.AddSubtask)
		chores.PATCH("/:choreId/subtasks/:subtaskId", d.Chores.UpdateSubtask)
		chores.DELETE("/:choreId/subtasks/:subtaskId", d.Chores.DeleteSubtask)
		chores.GET("/:choreId/swap-requests", d.Chores.ListSwapRequests)
		chores.POST("/:choreId/swap-requests", d.Chores.CreateSwapRequest)
		chores.PATCH("/:choreId/swap-requests/:swapRequestId", d.Chores.ResolveSwapRequest)
		chores.POST("/:choreId/event", d.Chores.CreateChoreEvent)
	}

	expenses := hh.Group("/expenses")
	{
		expenses.GET("", d.Expenses.ListExpenses)
		expenses.POST("", d.Expenses.CreateExpense)
		expenses.GET("/:expenseId", d.Expenses.GetExpense)
		expenses.PATCH("/:expenseId", d.Expenses.UpdateExpense)
		expenses.DELETE("/:expenseId", d.Expenses.DeleteExpense)
		expenses.PUT("/:expenseId/splits", d.Expenses.UpdateSplits)
		expenses.GET("/:expenseId/receipts", d.Expenses.ListReceipts)
		expenses.POST("/:expenseId/receipts", d.Expenses.UploadReceipt)
		expenses.DELETE("/:expenseId/receipts/:receiptId", d.Expenses.DeleteReceipt)
	}

	transactions := hh.Group("/transactions")
	{
		transactions.GET("", d.Expenses.ListTransactions)
		transactions.POST("", d.Expenses.CreateTransaction)
		transactions.PATCH("/:transactionId/status", d.Expenses.UpdateTransactionStatus)
		transactions.DELETE("/:transactionId", d.Expenses.DeleteTransaction)
	}

	events := hh.Group("/events")
	{
		events.GET("", d.Events.ListEvents)
		events.POST("", d.Events.CreateEvent)
		events.GET("/:eventId", d.Events.GetEvent)
		events.PATCH("/:eventId", d.Events.UpdateEvent)
		events.DELETE("/:eventId", d.Events.DeleteEvent)
		events.PATCH("/:eventId/status", d.Events.UpdateEventStatus)
		events.POST("/:eventId/reminders", d.Events.AddReminder)
		events.DELETE("/:eventId/reminders/:reminderId", d.Events.RemoveReminder)
	}

	hh.GET("/mentions", d.Threads.ListMyMentions)
	hh.GET("/mentions/unread-count", d.Threads.UnreadMentionsCount)

	threads := hh.Group("/threads")
	{
		threads.GET("", d.Threads.ListThreads)
		threads.POST("", d.Threads.CreateThread)
		threads.GET("/:threadId", d.Threads.GetThread)
		threads.PATCH("/:threadId", d.Threads.UpdateThread)
		threads.DELETE("/:threadId", d.Threads.DeleteThread)
		threads.POST("/:threadId/invite", d.Threads.InviteToThread)
	}

	messages := threads.Group("/:threadId/messages")
	{
		messages.GET("", d.Threads.ListMessages)
		messages.POST("", d.Threads.CreateMessage)
		messages.PATCH("/:messageId", d.Threads.UpdateMessage)
		messages.DELETE("/:messageId", d.Threads.DeleteMessage)
		messages.POST("/:messageId/read", d.Threads.MarkMessageRead)
		messages.GET("/:messageId/read", d.Threads.GetReadStatus)
		messages.GET("/:messageId/reactions", d.Threads.ListReactions)
		messages.POST("/:messageId/reactions", d.Threads.AddReaction)
		messages.DELETE("/:messageId/reactions/:reactionId", d.Threads.RemoveReaction)
		messages.POST("/:messageId/mentions", d.Threads.CreateMention)
		messages.DELETE("/:messageId/mentions/:mentionId", d.Threads.DeleteMention)
		messages.POST("/:messageId/attachments", d.Threads.AddAttachment)
		messages.DELETE("/:messageId/attachments/:attachmentId", d.Threads.DeleteAttachment)
		messages.POST("/:messageId/polls", d.Threads.CreatePoll)
	}

	polls := hh.Group("/polls")
	{
		polls.GET("/:pollId", d.Threads.GetPoll)
		polls.PATCH("/:pollId", d.Threads.UpdatePoll)
		polls.DELETE("/:pollId", d.Threads.DeletePoll)
		polls.POST("/:pollId/vote", d.Threads.VotePoll)
		polls.DELETE("/:pollId/votes/:voteId", d.Threads.RemoveVote)
	}

	return r
}
