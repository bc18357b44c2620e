package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/rating-ingest/internal/entity"
	"github.com/user/rating-ingest/internal/usecase"
)

type fakeNamer struct {
	names map[string]string
	err   error
	urls  []string
}

func (n *fakeNamer) SchoolName(_ context.Context, url string) (string, bool, error) {
	n.urls = append(n.urls, url)
	if n.err != nil {
		return "", false, n.err
	}
	name, ok := n.names[url]
	return name, ok, nil
}

func TestDiscover(t *testing.T) {
	namer := &fakeNamer{names: map[string]string{
		urlFor(1): "Alpha College",
		urlFor(2): "other schools",
		urlFor(4): "Delta University",
	}}
	d := usecase.NewCatalogDiscoverer(baseURL, namer, zap.NewNop())

	catalog, err := d.Discover(context.Background(), 1, 5)

	require.NoError(t, err)
	require.Equal(t, entity.Catalog{1: "Alpha College", 4: "Delta University"}, catalog)
	require.Len(t, namer.urls, 4)
}

func TestDiscoverBrowserFailure(t *testing.T) {
	namer := &fakeNamer{err: errors.New("browser gone")}
	d := usecase.NewCatalogDiscoverer(baseURL, namer, zap.NewNop())

	_, err := d.Discover(context.Background(), 1, 3)
	require.Error(t, err)
	require.Len(t, namer.urls, 1)
}

func TestDiscoverInvalidRange(t *testing.T) {
	d := usecase.NewCatalogDiscoverer(baseURL, &fakeNamer{}, zap.NewNop())

	_, err := d.Discover(context.Background(), 10, 1)
	require.Error(t, err)
}
