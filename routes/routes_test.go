package routes_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"toolrent-content/handlers"
	"toolrent-content/helper"
	"toolrent-content/media"
	"toolrent-content/models"
	"toolrent-content/repositories"
	"toolrent-content/routes"
	"toolrent-content/services"
	"toolrent-content/storage"
	"toolrent-content/testutil"
	"toolrent-content/validation"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

const jwtSecret = "test-secret"

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type envelope[T any] struct {
	Code        int             `json:"code"`
	CodeType    string          `json:"code_type"`
	CodeMessage json.RawMessage `json:"code_message"`
	Data        T               `json:"data"`
}

type formFile struct {
	field, name, mimeType string
	content               []byte
}

type IntegrationTestSuite struct {
	suite.Suite
	db       *gorm.DB
	store    *storage.MemoryStorage
	router   *gin.Engine
	token    string
	userID   uint
	category *models.Category
}

func (suite *IntegrationTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	suite.db = testutil.NewDB(suite.T())
	suite.store = storage.NewMemoryStorage("https://cdn.toolrent.test/media")
	suite.category = testutil.SeedCategory(suite.T(), suite.db, "diy")

	// Initialize repositories
	userRepo := repositories.NewUserRepository(suite.db)
	articleRepo := repositories.NewArticleRepository(suite.db)
	categoryRepo := repositories.NewCategoryRepository(suite.db)

	// Initialize services
	pipeline := media.NewPipeline(suite.store, zerolog.Nop())
	validator := validation.NewContentValidator(categoryRepo, media.DefaultMaxImageSize)
	authService := services.NewAuthService(userRepo, jwtSecret, time.Hour)
	articleService := services.NewArticleService(articleRepo, validator, pipeline, services.MediaFolders{}, zerolog.Nop())
	categoryService := services.NewCategoryService(categoryRepo)

	// Initialize handlers
	h := helper.New()
	suite.router = routes.Setup(routes.Handlers{
		Auth:     handlers.NewAuthHandler(authService, h),
		Article:  handlers.NewArticleHandler(articleService, h, 0, 0),
		Category: handlers.NewCategoryHandler(categoryService, h),
	}, jwtSecret, zerolog.Nop())

	suite.token, suite.userID = suite.register("editor", "editor@toolrent.test", "Tool Editor", models.RoleEditor)
}

func (suite *IntegrationTestSuite) register(username, email, displayName string, role models.UserRole) (string, uint) {
	w := suite.doJSON(http.MethodPost, "/api/v1/auth/register", "", models.RegisterRequest{
		Username:    username,
		Email:       email,
		Password:    "password123",
		DisplayName: displayName,
		Role:        role,
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var res envelope[models.AuthResponse]
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
	return res.Data.Token, res.Data.User.ID
}

func (suite *IntegrationTestSuite) doJSON(method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		suite.Require().NoError(err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *IntegrationTestSuite) doMultipart(method, path string, fields map[string]string, files []formFile) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		suite.Require().NoError(mw.WriteField(k, v))
	}
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.field, f.name))
		header.Set("Content-Type", f.mimeType)
		part, err := mw.CreatePart(header)
		suite.Require().NoError(err)
		_, err = part.Write(f.content)
		suite.Require().NoError(err)
	}
	suite.Require().NoError(mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+suite.token)

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func decode[T any](suite *IntegrationTestSuite, w *httptest.ResponseRecorder) envelope[T] {
	var res envelope[T]
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res), w.Body.String())
	return res
}

func saleArticle() map[string]interface{} {
	return map[string]interface{}{
		"title":    "Spring Tool Sale Announcement",
		"category": "diy",
		"sections": []map[string]interface{}{{
			"title":      "Intro",
			"paragraphs": []map[string]interface{}{{"content": "Twenty characters!!!"}},
		}},
	}
}

func (suite *IntegrationTestSuite) createSale() models.Article {
	w := suite.doJSON(http.MethodPost, "/api/v1/articles", suite.token, saleArticle())
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Article](suite, w).Data
}

func (suite *IntegrationTestSuite) TestHealth() {
	w := suite.doJSON(http.MethodGet, "/health", "", nil)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *IntegrationTestSuite) TestAuthFlow() {
	w := suite.doJSON(http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{
		Email:    "editor@toolrent.test",
		Password: "password123",
	})
	suite.Equal(http.StatusOK, w.Code)
	suite.NotEmpty(decode[models.AuthResponse](suite, w).Data.Token)

	w = suite.doJSON(http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{
		Email:    "editor@toolrent.test",
		Password: "wrong-password",
	})
	suite.Equal(http.StatusUnauthorized, w.Code)

	w = suite.doJSON(http.MethodGet, "/api/v1/profile", suite.token, nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("editor", decode[models.User](suite, w).Data.Username)
}

func (suite *IntegrationTestSuite) TestCreateArticleJSON() {
	article := suite.createSale()

	suite.Equal("Spring Tool Sale Announcement", article.Title)
	suite.False(article.IsFeatured)
	suite.Equal(suite.userID, article.AuthorID)
	suite.Equal("Tool Editor", article.AuthorName)
	suite.Require().Len(article.Sections, 1)
	suite.Empty(article.Sections[0].Images)

	w := suite.doJSON(http.MethodGet, fmt.Sprintf("/api/v1/articles/%d", article.ID), suite.token, nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.NotContains(w.Body.String(), `"author":`)
	suite.NotContains(w.Body.String(), "password")
}

func (suite *IntegrationTestSuite) TestUpdateSectionsToEmptyList() {
	article := suite.createSale()

	w := suite.doJSON(http.MethodPut, fmt.Sprintf("/api/v1/articles/%d", article.ID), suite.token,
		map[string]interface{}{"sections": []interface{}{}})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Empty(decode[models.Article](suite, w).Data.Sections)

	var sections int64
	suite.Require().NoError(suite.db.Model(&models.Section{}).Count(&sections).Error)
	suite.Zero(sections)
}

func (suite *IntegrationTestSuite) TestCreateArticleMultipart() {
	sections := `[{"title":"Getting started","paragraphs":[{"content":"Unbox the drill carefully."}],"images":[{"url":"https://images.example.com/drill.webp","alt_text":"Drill"}]}]`

	w := suite.doMultipart(http.MethodPost, "/api/v1/articles", map[string]string{
		"title":       "Cordless drill rental guide",
		"category":    fmt.Sprint(suite.category.ID),
		"content":     "Overview {{IMAGE_0}}",
		"is_public":   "true",
		"is_featured": "false",
		"sections":    sections,
	}, []formFile{
		{media.FieldMainImage, "cover.png", "image/png", pngBytes},
		{media.FieldAdditionalImages, "chuck_detail.png", "image/png", pngBytes},
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	article := decode[models.Article](suite, w).Data
	suite.True(article.IsPublic)
	suite.Equal(models.StatusPublished, article.Status)
	suite.Require().NotNil(article.MainImageURL)
	suite.True(suite.store.Exists(*article.MainImageURL))
	suite.Require().NotNil(article.Content)
	suite.Contains(*article.Content, `alt="chuck detail"`)
	suite.Require().Len(article.Sections, 1)
	suite.Require().Len(article.Sections[0].Images, 1)
	suite.Equal("Drill", *article.Sections[0].Images[0].AltText)
	suite.Equal(2, suite.store.Len())
}

func (suite *IntegrationTestSuite) TestCreateArticleRejectsPDF() {
	w := suite.doMultipart(http.MethodPost, "/api/v1/articles", map[string]string{
		"title":    "Safety manual upload",
		"category": "diy",
		"content":  "See attached",
	}, []formFile{{media.FieldLegacyFiles, "manual.pdf", "application/pdf", []byte("%PDF-1.7")}})

	suite.Equal(http.StatusBadRequest, w.Code)
	res := decode[models.ValidationReport](suite, w)
	suite.Equal(403, res.Code)
	suite.Equal([]string{models.CodeInvalidMimeType}, res.Data.ErrorCodes["files[0]"])
	suite.Zero(suite.store.Len())
}

func (suite *IntegrationTestSuite) TestCreateArticleRejectsOversizeImage() {
	oversize := append(append([]byte{}, pngBytes...), bytes.Repeat([]byte{0}, int(media.DefaultMaxImageSize))...)

	w := suite.doMultipart(http.MethodPost, "/api/v1/articles", map[string]string{
		"title":    "Cover photo straight off the camera",
		"category": "diy",
		"content":  "Body",
	}, []formFile{{media.FieldMainImage, "raw.png", "image/png", oversize}})

	suite.Equal(http.StatusBadRequest, w.Code)
	res := decode[models.ValidationReport](suite, w)
	suite.Equal(403, res.Code)
	suite.Equal([]string{models.CodeImageTooLarge}, res.Data.ErrorCodes["files[0]"])
	suite.Zero(suite.store.Len())
}

func (suite *IntegrationTestSuite) TestCreateArticleMalformedRequests() {
	w := suite.doMultipart(http.MethodPost, "/api/v1/articles", map[string]string{
		"title":    "Two covers is one too many",
		"category": "diy",
		"content":  "Body",
	}, []formFile{
		{media.FieldMainImage, "a.png", "image/png", pngBytes},
		{media.FieldMainImage, "b.png", "image/png", pngBytes},
	})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(400, decode[map[string]interface{}](suite, w).Code)

	w = suite.doMultipart(http.MethodPost, "/api/v1/articles", map[string]string{
		"title":    "Sections that are not JSON",
		"category": "diy",
		"sections": "not json",
	}, nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.doMultipart(http.MethodPost, "/api/v1/articles", map[string]string{
		"title":     "Public flag that is not a bool",
		"category":  "diy",
		"content":   "Body",
		"is_public": "maybe",
	}, nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *IntegrationTestSuite) TestValidationReport() {
	w := suite.doJSON(http.MethodPost, "/api/v1/articles", suite.token, map[string]interface{}{"title": "Tiny"})
	suite.Equal(http.StatusBadRequest, w.Code)

	report := decode[models.ValidationReport](suite, w).Data
	suite.False(report.Valid)
	suite.Equal([]string{models.CodeTitleTooShort}, report.ErrorCodes["title"])
	suite.Equal([]string{models.CodeContentRequired}, report.ErrorCodes["content"])
	suite.Equal([]string{models.CodeSectionsRequired}, report.ErrorCodes["sections"])
	suite.Equal([]string{models.CodeCategoryRequired}, report.ErrorCodes["category"])
}

func (suite *IntegrationTestSuite) TestCustomerCannotWrite() {
	token, _ := suite.register("renter", "renter@toolrent.test", "Tool Renter", models.RoleCustomer)

	w := suite.doJSON(http.MethodPost, "/api/v1/articles", token, saleArticle())
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.doJSON(http.MethodPost, "/api/v1/articles", "", saleArticle())
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *IntegrationTestSuite) TestPublishAndPublicRoutes() {
	article := suite.createSale()
	publicPath := fmt.Sprintf("/api/v1/public/articles/%d", article.ID)

	suite.Equal(http.StatusNotFound, suite.doJSON(http.MethodGet, publicPath, "", nil).Code)

	w := suite.doJSON(http.MethodPatch, fmt.Sprintf("/api/v1/articles/%d/publish", article.ID), suite.token, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal(models.StatusPublished, decode[models.Article](suite, w).Data.Status)

	w = suite.doJSON(http.MethodGet, publicPath, "", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal("Tool Editor", decode[models.Article](suite, w).Data.AuthorName)

	w = suite.doJSON(http.MethodGet, "/api/v1/public/articles/featured", "", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Zero(decode[models.ArticleListResponse](suite, w).Data.Total)

	w = suite.doJSON(http.MethodPatch, fmt.Sprintf("/api/v1/articles/%d/feature", article.ID), suite.token, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.doJSON(http.MethodGet, "/api/v1/public/articles/featured", "", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	list := decode[models.ArticleListResponse](suite, w).Data
	suite.Equal(int64(1), list.Total)
	suite.Equal("Tool Editor", list.Articles[0].AuthorName)

	w = suite.doJSON(http.MethodGet, "/api/v1/public/articles/latest?limit=3", "", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Len(decode[[]models.Article](suite, w).Data, 1)
}

func (suite *IntegrationTestSuite) TestListArticles() {
	suite.createSale()

	w := suite.doJSON(http.MethodGet, "/api/v1/articles?search=spring&page=1&limit=5&sort_by=title&sort_order=asc", suite.token, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	list := decode[models.ArticleListResponse](suite, w).Data
	suite.Equal(int64(1), list.Total)
	suite.Equal(5, list.Limit)
	suite.NotNil(list.Pagination)

	w = suite.doJSON(http.MethodGet, "/api/v1/articles?limit=1000", suite.token, nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.doJSON(http.MethodGet, "/api/v1/articles?sort_by=password", suite.token, nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *IntegrationTestSuite) TestDeleteArticle() {
	article := suite.createSale()
	path := fmt.Sprintf("/api/v1/articles/%d", article.ID)

	suite.Equal(http.StatusOK, suite.doJSON(http.MethodDelete, path, suite.token, nil).Code)
	suite.Equal(http.StatusNotFound, suite.doJSON(http.MethodGet, path, suite.token, nil).Code)
	suite.Equal(http.StatusNotFound, suite.doJSON(http.MethodDelete, path, suite.token, nil).Code)
	suite.Equal(http.StatusBadRequest, suite.doJSON(http.MethodDelete, "/api/v1/articles/abc", suite.token, nil).Code)
}

func (suite *IntegrationTestSuite) TestCategories() {
	w := suite.doJSON(http.MethodGet, "/api/v1/public/categories", "", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Len(decode[[]models.Category](suite, w).Data, 1)

	w = suite.doJSON(http.MethodPost, "/api/v1/categories", suite.token, models.CreateCategoryRequest{Name: "Garden"})
	suite.Equal(http.StatusForbidden, w.Code, "only admins create categories")

	w = suite.doJSON(http.MethodGet, "/api/v1/categories/diy", suite.token, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal(suite.category.ID, decode[models.Category](suite, w).Data.ID)
}

func TestIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}
