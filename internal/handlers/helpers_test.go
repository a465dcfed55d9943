package handlers

import (
	"context"
	"strconv"

	"github.com/livedesk/livedesk/internal/middleware"
)

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// contextWithUser injects the identity the auth middleware would set
func contextWithUser(ctx context.Context, username, userUUID string) context.Context {
	ctx = context.WithValue(ctx, middleware.UserContextKey, username)
	return context.WithValue(ctx, middleware.UserUUIDContextKey, userUUID)
}
