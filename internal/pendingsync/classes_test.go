package pendingsync

import (
	"context"
	"errors"
	"testing"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/starknode/starknode/gateway"
	gwmocks "github.com/starknode/starknode/gateway/mocks"
	"github.com/starknode/starknode/internal/pendingsync/mocks"
	"github.com/starknode/starknode/libs/log"
	"github.com/starknode/starknode/types"
)

var (
	sierraHash   = types.ClassHash{Felt: types.MustFeltFromHex("0x51e77a")}
	compiledHash = types.CompiledClassHash{Felt: types.MustFeltFromHex("0xca5e")}
	cairoHash    = types.ClassHash{Felt: types.MustFeltFromHex("0xca1")}
	deployedHash = types.ClassHash{Felt: types.MustFeltFromHex("0xde9")}

	sierraDefinition = []byte(`{"sierra_program": ["0x1"], "abi": "[]"}`)
	casm             = []byte(`{"bytecode": ["0x2"]}`)
	cairoDefinition  = []byte(`{"program": {}, "abi": []}`)
)

func declaringStateDiff() *types.StateDiff {
	return &types.StateDiff{
		DeclaredClasses: []types.DeclaredSierraClass{
			{ClassHash: sierraHash, CompiledClassHash: compiledHash},
		},
		OldDeclaredContracts: []types.ClassHash{cairoHash},
		DeployedContracts: []types.DeployedContract{
			{Address: types.ContractAddress{Felt: types.MustFeltFromHex("0x1")}, ClassHash: deployedHash},
			{Address: types.ContractAddress{Felt: types.MustFeltFromHex("0x2")}, ClassHash: cairoHash},
		},
		ReplacedClasses: []types.ReplacedClass{
			{Address: types.ContractAddress{Felt: types.MustFeltFromHex("0x3")}, ClassHash: sierraHash},
		},
	}
}

func TestReferencedClasses(t *testing.T) {
	refs := referencedClasses(declaringStateDiff())
	assert.Equal(t, []classRef{
		{hash: sierraHash, compiledHash: compiledHash},
		{hash: cairoHash},
		{hash: deployedHash},
	}, refs)

	assert.Empty(t, referencedClasses(&types.StateDiff{}))
}

func TestClassDownloaderPersistsMissingClasses(t *testing.T) {
	t.Cleanup(leaktest.Check(t))

	client := gwmocks.NewClient(t)
	client.On("Class", mock.Anything, sierraHash, gateway.Pending).Return(sierraDefinition, nil).Once()
	client.On("CompiledClass", mock.Anything, sierraHash, gateway.Pending).Return(casm, nil).Once()
	client.On("Class", mock.Anything, deployedHash, gateway.Pending).Return(cairoDefinition, nil).Once()

	classes := newTestClassStore(t)
	_, err := classes.StoreClasses([]types.ClassDefinition{
		{Hash: cairoHash, Kind: types.ClassKindCairo, Definition: cairoDefinition},
	})
	require.NoError(t, err)

	downloader := NewClassDownloader(log.TestingLogger(), client, classes, 2, NopMetrics())
	n, err := downloader.Download(context.Background(), declaringStateDiff())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	sierra, err := classes.LoadClass(sierraHash)
	require.NoError(t, err)
	assert.Equal(t, &types.ClassDefinition{
		Hash:              sierraHash,
		Kind:              types.ClassKindSierra,
		Definition:        sierraDefinition,
		CompiledClassHash: compiledHash,
		Compiled:          casm,
	}, sierra)

	deployed, err := classes.LoadClass(deployedHash)
	require.NoError(t, err)
	assert.Equal(t, types.ClassKindCairo, deployed.Kind)

	// everything is present now, the gateway is not asked again
	n, err = downloader.Download(context.Background(), declaringStateDiff())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClassDownloaderFailsAsAWhole(t *testing.T) {
	t.Cleanup(leaktest.Check(t))

	gatewayErr := errors.New("gateway unavailable")
	storeErr := errors.New("disk full")

	testCases := map[string]struct {
		setup    func(client *gwmocks.Client, classes *mocks.ClassStore)
		expected error
	}{
		"class fetch fails": {
			setup: func(client *gwmocks.Client, classes *mocks.ClassStore) {
				classes.On("HasClass", mock.Anything).Return(false, nil)
				client.On("Class", mock.Anything, sierraHash, gateway.Pending).Return(sierraDefinition, nil).Maybe()
				client.On("CompiledClass", mock.Anything, sierraHash, gateway.Pending).Return(casm, nil).Maybe()
				client.On("Class", mock.Anything, cairoHash, gateway.Pending).Return(nil, gatewayErr)
				client.On("Class", mock.Anything, deployedHash, gateway.Pending).Return(cairoDefinition, nil).Maybe()
			},
			expected: gatewayErr,
		},
		"compiled class fetch fails": {
			setup: func(client *gwmocks.Client, classes *mocks.ClassStore) {
				classes.On("HasClass", mock.Anything).Return(false, nil)
				client.On("Class", mock.Anything, sierraHash, gateway.Pending).Return(sierraDefinition, nil)
				client.On("CompiledClass", mock.Anything, sierraHash, gateway.Pending).Return(nil, gatewayErr)
				client.On("Class", mock.Anything, mock.Anything, gateway.Pending).Return(cairoDefinition, nil).Maybe()
			},
			expected: gatewayErr,
		},
		"presence check fails": {
			setup: func(client *gwmocks.Client, classes *mocks.ClassStore) {
				classes.On("HasClass", sierraHash).Return(false, storeErr)
			},
			expected: storeErr,
		},
		"write fails": {
			setup: func(client *gwmocks.Client, classes *mocks.ClassStore) {
				classes.On("HasClass", mock.Anything).Return(false, nil)
				client.On("Class", mock.Anything, sierraHash, gateway.Pending).Return(sierraDefinition, nil)
				client.On("CompiledClass", mock.Anything, sierraHash, gateway.Pending).Return(casm, nil)
				client.On("Class", mock.Anything, mock.Anything, gateway.Pending).Return(cairoDefinition, nil)
				classes.On("StoreClasses", mock.MatchedBy(func(classes []types.ClassDefinition) bool {
					return len(classes) == 3
				})).Return(0, storeErr).Once()
			},
			expected: storeErr,
		},
	}

	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			client := gwmocks.NewClient(t)
			classes := mocks.NewClassStore(t)
			tc.setup(client, classes)

			downloader := NewClassDownloader(log.TestingLogger(), client, classes, 3, NopMetrics())
			n, err := downloader.Download(context.Background(), declaringStateDiff())
			assert.ErrorIs(t, err, tc.expected)
			assert.Zero(t, n)
		})
	}
}
