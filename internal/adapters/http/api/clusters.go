package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/defscout/internal/domain/types"
)

// ClusterDependencies defines the interface for cluster queries.
type ClusterDependencies interface {
	Clusters(ctx context.Context) ([]types.Cluster, error)
	Cluster(ctx context.Context, label int) (types.ClusterDetail, error)
}

// ClustersHandler handles cluster requests.
type ClustersHandler struct {
	deps ClusterDependencies
}

// NewClustersHandler creates a new clusters handler.
func NewClustersHandler(deps ClusterDependencies) *ClustersHandler {
	return &ClustersHandler{deps: deps}
}

// HandleListClusters handles GET /clusters.
func (h *ClustersHandler) HandleListClusters(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_clusters"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	clusters, err := h.deps.Clusters(r.Context())
	if err != nil {
		writeLookupError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, clusters)
}

// HandleGetCluster handles GET /clusters/{label}.
func (h *ClustersHandler) HandleGetCluster(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_cluster"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	label, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/clusters/"))
	if err != nil || label < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	detail, err := h.deps.Cluster(r.Context(), label)
	if err != nil {
		writeLookupError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
