package handlers

import (
	"context"
	"errors"
	"strconv"

	"toolrent-content/helper"
	"toolrent-content/media"
	"toolrent-content/middleware"
	"toolrent-content/models"
	"toolrent-content/services"

	"github.com/gin-gonic/gin"
	"gopkg.in/go-playground/validator.v9"
)

const defaultMultipartMemory = 32 << 20

type ArticleHandler struct {
	articleService services.ArticleService
	Helper         *helper.HTTPHelper
	limits         uploadLimits
}

// NewArticleHandler builds the article endpoints. Zero limits fall back to
// the package defaults.
func NewArticleHandler(articleService services.ArticleService, h *helper.HTTPHelper, multipartMemory, maxImageSize int64) *ArticleHandler {
	if multipartMemory <= 0 {
		multipartMemory = defaultMultipartMemory
	}
	if maxImageSize <= 0 {
		maxImageSize = media.DefaultMaxImageSize
	}
	return &ArticleHandler{
		articleService: articleService,
		Helper:         h,
		limits:         uploadLimits{maxMemory: multipartMemory, maxImageSize: maxImageSize},
	}
}

func (h *ArticleHandler) CreateArticle(c *gin.Context) {
	input, files, err := parseArticleRequest(c, h.limits)
	if err != nil {
		h.sendRequestError(c, err)
		return
	}

	article, err := h.articleService.CreateArticle(c.Request.Context(), input, files, c.GetUint(middleware.ContextUserID))
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendCreated(c, "Article created successfully", article)
}

func (h *ArticleHandler) UpdateArticle(c *gin.Context) {
	id, ok := h.articleID(c)
	if !ok {
		return
	}

	input, files, err := parseArticleRequest(c, h.limits)
	if err != nil {
		h.sendRequestError(c, err)
		return
	}

	article, err := h.articleService.UpdateArticle(c.Request.Context(), id, input, files)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Article updated successfully", article)
}

func (h *ArticleHandler) DeleteArticle(c *gin.Context) {
	id, ok := h.articleID(c)
	if !ok {
		return
	}

	if err := h.articleService.DeleteArticle(c.Request.Context(), id); err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Article deleted successfully", h.Helper.EmptyJsonMap())
}

func (h *ArticleHandler) GetArticle(c *gin.Context) {
	h.getArticle(c, false)
}

func (h *ArticleHandler) GetPublicArticle(c *gin.Context) {
	h.getArticle(c, true)
}

func (h *ArticleHandler) getArticle(c *gin.Context, publicOnly bool) {
	id, ok := h.articleID(c)
	if !ok {
		return
	}

	article, err := h.articleService.GetArticle(c.Request.Context(), id, publicOnly)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Success", article)
}

func (h *ArticleHandler) GetArticles(c *gin.Context) {
	h.listArticles(c, h.articleService.GetArticles)
}

func (h *ArticleHandler) GetPublicArticles(c *gin.Context) {
	h.listArticles(c, h.articleService.GetPublicArticles)
}

func (h *ArticleHandler) GetFeaturedArticles(c *gin.Context) {
	h.listArticles(c, h.articleService.GetFeaturedArticles)
}

func (h *ArticleHandler) GetLatestArticles(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "5"))
	if err != nil || limit < 1 || limit > 100 {
		h.Helper.SendBadRequest(c, "limit must be between 1 and 100", h.Helper.EmptyJsonMap())
		return
	}

	articles, err := h.articleService.GetLatestArticles(c.Request.Context(), limit)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Success", articles)
}

type listFunc func(ctx context.Context, params models.ArticleListParams) ([]models.Article, int64, error)

func (h *ArticleHandler) listArticles(c *gin.Context, list listFunc) {
	var params models.ArticleListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.Helper.SendBadRequest(c, "Invalid query parameters", err.Error())
		return
	}
	if err := h.Helper.Validate.Struct(params); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			h.Helper.SendValidationError(c, validationErrors)
			return
		}
		h.Helper.SendBadRequest(c, err.Error(), h.Helper.EmptyJsonMap())
		return
	}

	articles, total, err := list(c.Request.Context(), params)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Success", models.ArticleListResponse{
		Articles:   articles,
		Total:      total,
		Page:       params.Page,
		Limit:      params.Limit,
		Pagination: h.Helper.GeneratePaging(c, params.Limit, params.Page, int(total)),
	})
}

func (h *ArticleHandler) TogglePublish(c *gin.Context) {
	id, ok := h.articleID(c)
	if !ok {
		return
	}

	article, err := h.articleService.TogglePublish(c.Request.Context(), id)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Article "+string(article.Status), article)
}

func (h *ArticleHandler) ToggleFeatured(c *gin.Context) {
	id, ok := h.articleID(c)
	if !ok {
		return
	}

	article, err := h.articleService.ToggleFeatured(c.Request.Context(), id)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Featured flag updated", article)
}

func (h *ArticleHandler) articleID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		h.Helper.SendBadRequest(c, "Invalid article ID", h.Helper.EmptyJsonMap())
		return 0, false
	}
	return uint(id), true
}

func (h *ArticleHandler) sendRequestError(c *gin.Context, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		if reqErr.tooLarge {
			h.Helper.SendPayloadTooLarge(c, reqErr.Error())
			return
		}
		h.Helper.SendBadRequest(c, reqErr.Error(), h.Helper.EmptyJsonMap())
		return
	}
	h.Helper.SendServiceError(c, err)
}
