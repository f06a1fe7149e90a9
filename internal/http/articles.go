package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ArticlesController struct {
	store ArticleStore
}

func NewArticlesController(store ArticleStore) *ArticlesController {
	return &ArticlesController{store: store}
}

// SaveArticle handles POST /api/articles/save
func (ac *ArticlesController) SaveArticle(c *gin.Context) {
	var req ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	article, ok := req.toArticle()
	if !ok {
		respondBadRequest(c, "invalid article: key or title is required")
		return
	}

	saved, err := ac.store.UserSave(article)
	if err != nil {
		respondListError(c, err, "save article")
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": saved, "saved": true})
}

// UnsaveArticle handles POST /api/articles/unsave
func (ac *ArticlesController) UnsaveArticle(c *gin.Context) {
	var req ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	article, ok := req.toArticle()
	if !ok {
		respondBadRequest(c, "invalid article: key or title is required")
		return
	}

	unsaved, err := ac.store.UserUnsave(article)
	if err != nil {
		respondListError(c, err, "unsave article")
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": unsaved, "saved": false})
}

// GetSavedArticles handles GET /api/articles/saved
// With ?key=... it reports whether that article is saved instead.
func (ac *ArticlesController) GetSavedArticles(c *gin.Context) {
	if key := c.Query("key"); key != "" {
		saved, err := ac.store.IsSaved(key)
		if err != nil {
			respondInternalError(c, err, "check saved article")
			return
		}
		c.JSON(http.StatusOK, gin.H{"key": key, "saved": saved})
		return
	}

	articles, err := ac.store.SavedArticles()
	if err != nil {
		respondInternalError(c, err, "get saved articles")
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": articles, "total": len(articles)})
}
