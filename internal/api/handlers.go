package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"benchmarkbox/adapters"
	"benchmarkbox/internal/bridge"
	"benchmarkbox/internal/store"
	"benchmarkbox/internal/types"
)

// maxImportSize bounds the body accepted by the import endpoint
const maxImportSize = 32 << 20

// handleHealth returns the health status of the API
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "benchmarkbox",
	})
}

// ExtractRequest asks for the product of a page, given either its HTML or
// its address, or for the products of several addresses at once.
type ExtractRequest struct {
	URL   string   `json:"url"`
	HTML  string   `json:"html"`
	Title string   `json:"title"`
	URLs  []string `json:"urls"`
}

func (s *Server) handleExtract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.URLs) > 0 {
		urls := adapters.UniqueURLs(req.URLs)
		s.logger.Infof("Extracting %d URLs", len(urls))
		respond(c, http.StatusOK, s.bridge.ExtractURLs(c.Request.Context(), urls))
		return
	}

	resp, err := s.bridge.Handle(c.Request.Context(), bridge.Message{
		Action: bridge.ActionExtractProductInfo,
		URL:    strings.TrimSpace(req.URL),
		HTML:   req.HTML,
		Title:  req.Title,
	})
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if !resp.Success {
		respondError(c, http.StatusBadRequest, resp.Error)
		return
	}
	respond(c, http.StatusOK, resp.Product)
}

// handleMessage runs a bridge message and answers with the bridge response as is
func (s *Server) handleMessage(c *gin.Context) {
	var msg bridge.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid message")
		return
	}

	resp, err := s.bridge.Handle(c.Request.Context(), msg)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleCapture runs the save shortcut on the active tab
func (s *Server) handleCapture(c *gin.Context) {
	record, err := s.bridge.SaveCurrentTab(c.Request.Context())
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusOK, record)
}

// handlePending hands the pending record to the popup, at most once
func (s *Server) handlePending(c *gin.Context) {
	record, err := s.store.TakePendingProduct(c.Request.Context(), s.options.PendingMaxAge)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusOK, record)
}

// productFilter reads listing filters from the query string
func productFilter(c *gin.Context) (types.ProductFilter, error) {
	filter := types.ProductFilter{
		FolderID:  c.Query("folder"),
		Site:      c.Query("site"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	if tags := c.Query("tags"); tags != "" {
		filter.TagIDs = strings.Split(tags, ",")
	}

	for param, dst := range map[string]**float64{"priceMin": &filter.PriceMin, "priceMax": &filter.PriceMax} {
		if raw := c.Query(param); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return filter, fmt.Errorf("invalid %s: %q", param, raw)
			}
			*dst = &v
		}
	}

	for param, dst := range map[string]**time.Time{"dateFrom": &filter.DateFrom, "dateTo": &filter.DateTo} {
		if raw := c.Query(param); raw != "" {
			t, err := parseDate(raw)
			if err != nil {
				return filter, fmt.Errorf("invalid %s: %q", param, raw)
			}
			*dst = &t
		}
	}

	return filter, nil
}

// parseDate accepts RFC 3339 timestamps and plain dates
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}

func (s *Server) handleListProducts(c *gin.Context) {
	filter, err := productFilter(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	products, err := s.store.Products(c.Request.Context(), filter)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusOK, products)
}

func (s *Server) handleCreateProduct(c *gin.Context) {
	var in store.NewProduct
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := s.store.CreateProduct(c.Request.Context(), in)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusCreated, product)
}

func (s *Server) handleGetProduct(c *gin.Context) {
	product, err := s.store.Product(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusOK, product)
}

func (s *Server) handleUpdateProduct(c *gin.Context) {
	var update store.ProductUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := s.store.UpdateProduct(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusOK, product)
}

func (s *Server) handleDeleteProduct(c *gin.Context) {
	if err := s.store.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

func (s *Server) handleDuplicateProduct(c *gin.Context) {
	product, err := s.store.DuplicateProduct(c.Request.Context(), c.Param("id"), c.Query("folder"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusCreated, product)
}

func (s *Server) handleMoveProduct(c *gin.Context) {
	folderID := c.Query("folder")
	if folderID == "" {
		respondError(c, http.StatusBadRequest, "folder is required")
		return
	}
	if _, err := s.store.Folder(c.Request.Context(), folderID); err != nil {
		s.respondStoreError(c, err)
		return
	}

	product, err := s.store.MoveProduct(c.Request.Context(), c.Param("id"), folderID)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusOK, product)
}

func (s *Server) handleProductLists(c *gin.Context) {
	lists, err := s.store.ProductShoppingLists(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusOK, lists)
}

func (s *Server) handleListFolders(c *gin.Context) {
	folders, err := s.store.Folders(c.Request.Context())
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusOK, folders)
}

func (s *Server) handleCreateFolder(c *gin.Context) {
	var in store.NewFolder
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "Folder name is required")
		return
	}

	folder, err := s.store.CreateFolder(c.Request.Context(), in)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusCreated, folder)
}

func (s *Server) handleUpdateFolder(c *gin.Context) {
	var update store.FolderUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	folder, err := s.store.UpdateFolder(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusOK, folder)
}

// handleDeleteFolder deletes a folder, moving its products to ?moveTo= or to
// the unclassified folder.
func (s *Server) handleDeleteFolder(c *gin.Context) {
	if err := s.store.DeleteFolder(c.Request.Context(), c.Param("id"), c.Query("moveTo")); err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

func (s *Server) handleSetDefaultFolder(c *gin.Context) {
	if err := s.store.SetDefaultFolder(c.Request.Context(), c.Param("id")); err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

func (s *Server) handleClearFolder(c *gin.Context) {
	if err := s.store.ClearFolderProducts(c.Request.Context(), c.Param("id")); err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

func (s *Server) handleListTags(c *gin.Context) {
	tags, err := s.store.Tags(c.Request.Context())
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusOK, tags)
}

func (s *Server) handleCreateTag(c *gin.Context) {
	var in store.NewTag
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "Tag name is required")
		return
	}

	tag, err := s.store.CreateTag(c.Request.Context(), in)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusCreated, tag)
}

func (s *Server) handleDeleteTag(c *gin.Context) {
	if err := s.store.DeleteTag(c.Request.Context(), c.Param("id")); err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

func (s *Server) handleListShoppingLists(c *gin.Context) {
	lists, err := s.store.ShoppingLists(c.Request.Context())
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusOK, lists)
}

func (s *Server) handleCreateShoppingList(c *gin.Context) {
	var in store.NewShoppingList
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	list, err := s.store.CreateShoppingList(c.Request.Context(), in)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusCreated, list)
}

func (s *Server) handleUpdateShoppingList(c *gin.Context) {
	var update store.ShoppingListUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	list, err := s.store.UpdateShoppingList(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusOK, list)
}

func (s *Server) handleDeleteShoppingList(c *gin.Context) {
	if err := s.store.DeleteShoppingList(c.Request.Context(), c.Param("id")); err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

func (s *Server) handleShoppingListTotal(c *gin.Context) {
	total, err := s.store.ShoppingListTotal(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusOK, total)
}

func (s *Server) handleAddToShoppingList(c *gin.Context) {
	err := s.store.AddProductToShoppingList(c.Request.Context(), c.Param("id"), c.Param("productId"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

func (s *Server) handleRemoveFromShoppingList(c *gin.Context) {
	err := s.store.RemoveProductFromShoppingList(c.Request.Context(), c.Param("id"), c.Param("productId"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

func (s *Server) handleSites(c *gin.Context) {
	sites, err := s.store.Sites(c.Request.Context())
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusOK, sites)
}

func (s *Server) handleGetSettings(c *gin.Context) {
	settings, err := s.store.Settings(c.Request.Context())
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(c *gin.Context) {
	var update store.SettingsUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	settings, err := s.store.UpdateSettings(c.Request.Context(), update)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respond(c, http.StatusOK, settings)
}

// handleExport downloads the whole store as a JSON file
func (s *Server) handleExport(c *gin.Context) {
	raw, err := s.store.Export(c.Request.Context())
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	filename := fmt.Sprintf("benchmarkbox-export-%s.json", time.Now().Format(time.DateOnly))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/json", raw)
}

// handleImport replaces the whole store with the uploaded JSON document
func (s *Server) handleImport(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportSize))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Failed to read request body")
		return
	}

	if err := s.store.Import(c.Request.Context(), raw); err != nil {
		s.respondStoreError(c, err)
		return
	}
	s.logger.Info("Store data imported")
	respond(c, http.StatusOK, nil)
}
