package commands

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starknode/starknode/config"
	"github.com/starknode/starknode/libs/log"
)

const (
	latestBlockReply = `{
		"block_hash": "0x1234",
		"block_number": 7,
		"parent_block_hash": "0x1233",
		"state_root": "0x7061",
		"status": "ACCEPTED_ON_L2",
		"timestamp": 10,
		"transactions": [],
		"transaction_receipts": []
	}`
	pendingBlockReply = `{
		"parent_block_hash": "0x1234",
		"status": "PENDING",
		"timestamp": 20,
		"gas_price": "0xb",
		"sequencer_address": "0x5",
		"transactions": [],
		"transaction_receipts": []
	}`
	pendingStateUpdateReply = `{
		"old_root": "0x7061",
		"state_diff": {
			"storage_diffs": {},
			"nonces": {},
			"deployed_contracts": [{"address": "0x10", "class_hash": "0xc1a55"}],
			"old_declared_contracts": [],
			"declared_classes": [],
			"replaced_classes": []
		}
	}`
)

func TestRunPendingFollowsGateway(t *testing.T) {
	var pendingPolls, classDownloads int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feeder_gateway/get_block":
			if r.URL.Query().Get("blockNumber") == "latest" {
				fmt.Fprint(w, latestBlockReply)
				return
			}
			fmt.Fprint(w, pendingBlockReply)
		case "/feeder_gateway/get_state_update":
			atomic.AddInt32(&pendingPolls, 1)
			fmt.Fprint(w, pendingStateUpdateReply)
		case "/feeder_gateway/get_class_by_hash":
			atomic.AddInt32(&classDownloads, 1)
			fmt.Fprint(w, `{"program": {}, "abi": []}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	conf := config.TestConfig()
	conf.SetRoot(t.TempDir())
	conf.DBBackend = "memdb"
	conf.Gateway.URL = srv.URL

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- runPending(ctx, conf, log.TestingLogger()) }()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&pendingPolls) >= 3
	}, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("pending command did not stop")
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&classDownloads))
}

func TestRunPendingDisabled(t *testing.T) {
	conf := config.TestConfig()
	conf.PendingSync.Enable = false
	require.NoError(t, runPending(context.Background(), conf, log.TestingLogger()))
}
