package pendingsync

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/starknode/starknode/gateway"
	"github.com/starknode/starknode/libs/log"
	"github.com/starknode/starknode/types"
)

//go:generate ../../scripts/mockery_generate.sh ClassStore

// ClassStore persists class artifacts. StoreClasses must write all classes or
// none and must skip classes that are already present.
type ClassStore interface {
	HasClass(hash types.ClassHash) (bool, error)
	StoreClasses(classes []types.ClassDefinition) (int, error)
}

// ClassDownloader makes every class referenced by a state diff available
// locally.
type ClassDownloader struct {
	logger   log.Logger
	client   gateway.Client
	store    ClassStore
	fetchers int
	metrics  *Metrics
}

// NewClassDownloader returns a ClassDownloader running up to fetchers
// downloads concurrently.
func NewClassDownloader(
	logger log.Logger,
	client gateway.Client,
	store ClassStore,
	fetchers int,
	metrics *Metrics,
) *ClassDownloader {
	if fetchers < 1 {
		fetchers = 1
	}
	return &ClassDownloader{
		logger:   logger,
		client:   client,
		store:    store,
		fetchers: fetchers,
		metrics:  metrics,
	}
}

// Download fetches the classes diff declares, deploys or replaces that are
// missing from the store and persists them in a single write. It returns the
// number of classes persisted. On error nothing is persisted.
func (d *ClassDownloader) Download(ctx context.Context, diff *types.StateDiff) (int, error) {
	refs := referencedClasses(diff)

	missing := make([]classRef, 0, len(refs))
	for _, ref := range refs {
		ok, err := d.store.HasClass(ref.hash)
		if err != nil {
			return 0, err
		}
		if !ok {
			missing = append(missing, ref)
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}

	classes := make([]types.ClassDefinition, len(missing))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.fetchers)
	for i, ref := range missing {
		i, ref := i, ref
		g.Go(func() error {
			class, err := d.fetch(gctx, ref)
			if err != nil {
				return err
			}
			classes[i] = class
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	n, err := d.store.StoreClasses(classes)
	if err != nil {
		return 0, fmt.Errorf("persisting classes: %w", err)
	}
	d.metrics.ClassesDownloaded.Add(float64(n))
	d.logger.Debug("persisted classes", "count", n)
	return n, nil
}

func (d *ClassDownloader) fetch(ctx context.Context, ref classRef) (types.ClassDefinition, error) {
	definition, err := d.client.Class(ctx, ref.hash, gateway.Pending)
	if err != nil {
		return types.ClassDefinition{}, fmt.Errorf("downloading class %v: %w", ref.hash, err)
	}
	kind, err := types.DetectClassKind(definition)
	if err != nil {
		return types.ClassDefinition{}, fmt.Errorf("class %v: %w", ref.hash, err)
	}

	class := types.ClassDefinition{
		Hash:       ref.hash,
		Kind:       kind,
		Definition: definition,
	}
	if kind == types.ClassKindSierra {
		class.CompiledClassHash = ref.compiledHash
		class.Compiled, err = d.client.CompiledClass(ctx, ref.hash, gateway.Pending)
		if err != nil {
			return types.ClassDefinition{}, fmt.Errorf("downloading compiled class %v: %w", ref.hash, err)
		}
	}
	return class, nil
}

type classRef struct {
	hash types.ClassHash
	// only known for classes declared by the diff itself
	compiledHash types.CompiledClassHash
}

// referencedClasses lists each class diff refers to once, in order of first
// appearance: declared Sierra classes, declared Cairo 0 classes, deployed
// and finally replaced classes.
func referencedClasses(diff *types.StateDiff) []classRef {
	var (
		refs []classRef
		seen = make(map[types.ClassHash]struct{})
	)
	add := func(ref classRef) {
		if _, ok := seen[ref.hash]; ok {
			return
		}
		seen[ref.hash] = struct{}{}
		refs = append(refs, ref)
	}

	for _, declared := range diff.DeclaredClasses {
		add(classRef{hash: declared.ClassHash, compiledHash: declared.CompiledClassHash})
	}
	for _, hash := range diff.OldDeclaredContracts {
		add(classRef{hash: hash})
	}
	for _, deployed := range diff.DeployedContracts {
		add(classRef{hash: deployed.ClassHash})
	}
	for _, replaced := range diff.ReplacedClasses {
		add(classRef{hash: replaced.ClassHash})
	}
	return refs
}
