// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/go-core-stack/slowmode/db"
	"github.com/go-core-stack/slowmode/values"
)

func TestMongoStore(t *testing.T) {
	user, pass := values.GetMongoConfigDBCredentials()
	client, err := db.NewMongoClient(&db.MongoConfig{
		Host:     "localhost",
		Port:     "27017",
		Username: user,
		Password: pass,
	})
	require.NoError(t, err)
	defer func() { _ = client.Disconnect(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.HealthCheck(ctx); err != nil {
		t.Skipf("mongo not reachable: %s", err)
	}

	// fresh database per run, the channels collection starts empty
	s, err := NewMongo(client, "slowmode-test-"+uuid.NewString()[:8], WithMongoLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	testStoreBehaviour(t, s)
}
