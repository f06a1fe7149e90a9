package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readinglists/internal/entities"
	"github.com/mrlokans/readinglists/internal/utils"
)

type ReadingListsController struct {
	store ListStore
}

func NewReadingListsController(store ListStore) *ReadingListsController {
	return &ReadingListsController{store: store}
}

// ArticleRequest identifies one article variant. Either Key or Title
// (with an optional Project) must be set.
type ArticleRequest struct {
	Key          string `json:"key"`
	Project      string `json:"project"`
	Title        string `json:"title"`
	Variant      string `json:"variant"`
	DisplayTitle string `json:"display_title"`
}

// toArticle validates the request and builds the article it names.
func (r ArticleRequest) toArticle() (entities.Article, bool) {
	key := r.Key
	if key == "" {
		if r.Title == "" {
			return entities.Article{}, false
		}
		key = utils.ArticleKey(r.Project, r.Title)
	}
	_, title, err := utils.ParseArticleKey(key)
	if err != nil {
		return entities.Article{}, false
	}
	displayTitle := r.DisplayTitle
	if displayTitle == "" {
		displayTitle = utils.DisplayTitle(title)
	}
	return entities.Article{Key: key, Variant: r.Variant, DisplayTitle: displayTitle}, true
}

func toArticles(c *gin.Context, requests []ArticleRequest) ([]entities.Article, bool) {
	articles := make([]entities.Article, 0, len(requests))
	for _, r := range requests {
		article, ok := r.toArticle()
		if !ok {
			respondBadRequest(c, "invalid article: key or title is required")
			return nil, false
		}
		articles = append(articles, article)
	}
	return articles, true
}

// GetReadingLists handles GET /api/reading-lists
func (rc *ReadingListsController) GetReadingLists(c *gin.Context) {
	lists, err := rc.store.ReadingLists()
	if err != nil {
		respondInternalError(c, err, "get reading lists")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reading_lists": lists, "total": len(lists)})
}

// GetReadingListByName handles GET /api/reading-lists/named/:name
func (rc *ReadingListsController) GetReadingListByName(c *gin.Context) {
	list, err := rc.store.ReadingList(c.Param("name"))
	if err != nil {
		respondListError(c, err, "get reading list by name")
		return
	}
	c.JSON(http.StatusOK, list)
}

type CreateReadingListRequest struct {
	Name        string           `json:"name" binding:"required"`
	Description *string          `json:"description"`
	Articles    []ArticleRequest `json:"articles"`
}

// CreateReadingList handles POST /api/reading-lists
func (rc *ReadingListsController) CreateReadingList(c *gin.Context) {
	var req CreateReadingListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}
	articles, ok := toArticles(c, req.Articles)
	if !ok {
		return
	}

	list, err := rc.store.CreateReadingList(req.Name, req.Description, articles)
	if err != nil {
		respondListError(c, err, "create reading list")
		return
	}
	respondCreated(c, list)
}

type UpdateReadingListRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// UpdateReadingList handles PATCH /api/reading-lists/:id
// An empty name keeps the current one.
func (rc *ReadingListsController) UpdateReadingList(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateReadingListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	list, err := rc.store.UpdateReadingList(id, req.Name, req.Description)
	if err != nil {
		respondListError(c, err, "update reading list")
		return
	}
	c.JSON(http.StatusOK, list)
}

// DeleteReadingList handles DELETE /api/reading-lists/:id
func (rc *ReadingListsController) DeleteReadingList(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := rc.store.DeleteReadingLists([]uint{id}); err != nil {
		respondListError(c, err, "delete reading list")
		return
	}
	respondSuccess(c, "reading list deleted")
}

// GetEntries handles GET /api/reading-lists/:id/entries
func (rc *ReadingListsController) GetEntries(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := rc.store.ReadingListByID(id); err != nil {
		respondListError(c, err, "get reading list")
		return
	}
	entries, err := rc.store.Entries(id)
	if err != nil {
		respondInternalError(c, err, "get entries")
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "total": len(entries)})
}

type AddEntriesRequest struct {
	Articles []ArticleRequest `json:"articles" binding:"required,min=1"`
}

// AddEntries handles POST /api/reading-lists/:id/entries
func (rc *ReadingListsController) AddEntries(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AddEntriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "at least one article is required")
		return
	}
	articles, ok := toArticles(c, req.Articles)
	if !ok {
		return
	}

	if err := rc.store.AddArticles(id, articles); err != nil {
		respondListError(c, err, "add entries")
		return
	}
	list, err := rc.store.ReadingListByID(id)
	if err != nil {
		respondListError(c, err, "get reading list")
		return
	}
	c.JSON(http.StatusOK, list)
}

type RemoveEntriesRequest struct {
	Keys []string `json:"keys" binding:"required,min=1"`
}

// RemoveArticles handles POST /api/reading-lists/:id/entries/remove
func (rc *ReadingListsController) RemoveArticles(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req RemoveEntriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "at least one article key is required")
		return
	}
	if err := rc.store.RemoveArticles(id, req.Keys); err != nil {
		respondListError(c, err, "remove articles")
		return
	}
	respondSuccess(c, "articles removed")
}

// RemoveEntry handles DELETE /api/entries/:id
func (rc *ReadingListsController) RemoveEntry(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := rc.store.RemoveEntries([]uint{id}); err != nil {
		respondListError(c, err, "remove entry")
		return
	}
	respondSuccess(c, "entry removed")
}
