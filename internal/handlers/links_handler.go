package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shaibs3/mediavault/internal/db"
	"github.com/shaibs3/mediavault/internal/harvest"
	"github.com/shaibs3/mediavault/internal/store"
	"go.uber.org/zap"
)

// Harvester runs the reconciliation operations of a link
type Harvester interface {
	DownloadFiles(ctx context.Context, linkID int64) (harvest.Result, error)
	CheckDownloaded(ctx context.Context, linkID int64) (harvest.Result, error)
	ScanFilesForLink(ctx context.Context, linkID int64) (harvest.Result, error)
	AddDuplicate(ctx context.Context, linkID, duplicateID int64) (harvest.Result, error)
}

// LinksHandler handles link CRUD and the per-link harvesting operations
type LinksHandler struct {
	DB        store.DbProvider
	harvester Harvester
	logger    *zap.Logger
}

// NewLinksHandler creates a new links handler
func NewLinksHandler(dbProvider store.DbProvider, harvester Harvester) *LinksHandler {
	return &LinksHandler{DB: dbProvider, harvester: harvester, logger: zap.NewNop()}
}

// RegisterRoutes registers the routes for this handler
func (h *LinksHandler) RegisterRoutes(router *mux.Router, logger *zap.Logger) {
	h.logger = logger.Named("links")

	router.HandleFunc("/links", h.handleCreate).Methods("POST")
	router.HandleFunc("/links", h.handleList).Methods("GET")
	router.HandleFunc("/links", h.handleRemove).Methods("DELETE")
	router.HandleFunc("/links/mediafiles", h.handleMediaFiles).Methods("GET")
	router.HandleFunc("/links/tag_unreachable", h.handleTagUnreachable).Methods("GET")

	router.HandleFunc("/links/download", h.runOperation(h.harvester.DownloadFiles)).Methods("GET")
	router.HandleFunc("/links/check_downloaded", h.runOperation(h.harvester.CheckDownloaded)).Methods("GET")
	router.HandleFunc("/links/scan_files_for_link", h.runOperation(h.harvester.ScanFilesForLink)).Methods("GET")
	router.HandleFunc("/links/add_duplicate", h.handleAddDuplicate).Methods("GET")
}

// validateURL checks if a URL is safe to fetch
func validateURL(urlStr string) error {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %s (only http and https are allowed)", parsedURL.Scheme)
	}

	// SSRF protection
	host := parsedURL.Hostname()
	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return fmt.Errorf("access to localhost is not allowed")
	}

	if ip := net.ParseIP(host); ip != nil {
		if isPrivateIP(ip) {
			return fmt.Errorf("access to private IP %s is not allowed", ip)
		}
	}

	return nil
}

// isPrivateIP checks if an IP address is in a private range
func isPrivateIP(ip net.IP) bool {
	privateBlocks := []string{
		"127.0.0.0/8",    // localhost
		"10.0.0.0/8",     // private
		"172.16.0.0/12",  // private
		"192.168.0.0/16", // private
		"169.254.0.0/16", // link-local
		"::1/128",        // localhost IPv6
		"fe80::/10",      // link-local IPv6
		"fc00::/7",       // unique local IPv6
	}

	for _, block := range privateBlocks {
		_, cidr, _ := net.ParseCIDR(block)
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}

// handleCreate registers a new link
func (h *LinksHandler) handleCreate(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	path := strings.TrimSpace(body.Path)
	if path == "" {
		writeError(w, http.StatusBadRequest, "No path provided")
		return
	}
	if err := validateURL(path); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name, err := harvest.LinkName(path)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("cannot derive a name from %s", path))
		return
	}

	link, err := h.DB.CreateLink(req.Context(), path, name)
	if err != nil {
		writeStoreError(w, h.logger, err)
		return
	}
	h.logger.Info("link created", zap.Int64("link_id", link.ID), zap.String("path", link.Path))
	writeJSON(w, http.StatusCreated, link)
}

// handleList lists links by reachability; showDuplicate lists only duplicates
func (h *LinksHandler) handleList(w http.ResponseWriter, req *http.Request) {
	isReachable, err := queryBool(req, "isReachable", true)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	showDuplicate, err := queryBool(req, "showDuplicate", false)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	links, err := h.DB.ListLinks(req.Context(), db.LinkFilter{IsReachable: isReachable, ShowDuplicate: showDuplicate})
	if err != nil {
		writeStoreError(w, h.logger, err)
		return
	}
	if links == nil {
		links = []db.LinkRecord{}
	}
	writeJSON(w, http.StatusOK, links)
}

func (h *LinksHandler) handleRemove(w http.ResponseWriter, req *http.Request) {
	id, err := queryID(req, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.DB.RemoveLink(req.Context(), id); err != nil {
		writeStoreError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, harvest.Result{Success: true, Message: "Link removed"})
}

func (h *LinksHandler) handleMediaFiles(w http.ResponseWriter, req *http.Request) {
	id, err := queryID(req, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.DB.GetLink(req.Context(), id); err != nil {
		writeStoreError(w, h.logger, err)
		return
	}
	files, err := h.DB.ListMediaFilesForLink(req.Context(), id)
	if err != nil {
		writeStoreError(w, h.logger, err)
		return
	}
	if files == nil {
		files = []db.MediaFile{}
	}
	writeJSON(w, http.StatusOK, files)
}

func (h *LinksHandler) handleTagUnreachable(w http.ResponseWriter, req *http.Request) {
	id, err := queryID(req, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	reachable, err := queryBool(req, "isReachable", false)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.DB.SetReachable(req.Context(), id, reachable); err != nil {
		writeStoreError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, harvest.Result{
		Success: true,
		Message: fmt.Sprintf("link %d tagged as reachable=%t", id, reachable),
	})
}

func (h *LinksHandler) handleAddDuplicate(w http.ResponseWriter, req *http.Request) {
	id, err := queryID(req, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	duplicateID, err := queryID(req, "duplicateId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.harvester.AddDuplicate(req.Context(), id, duplicateID)
	if err != nil {
		writeStoreError(w, h.logger, err)
		return
	}
	writeResult(w, res)
}

// runOperation adapts a single link operation to an HTTP handler taking ?id=
func (h *LinksHandler) runOperation(op func(ctx context.Context, linkID int64) (harvest.Result, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id, err := queryID(req, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		res, err := op(req.Context(), id)
		if err != nil {
			writeStoreError(w, h.logger, err)
			return
		}
		writeResult(w, res)
	}
}
