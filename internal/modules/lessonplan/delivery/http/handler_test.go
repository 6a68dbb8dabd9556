package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/lessonforge/lessonplan-api/internal/entity"
	"github.com/lessonforge/lessonplan-api/internal/middleware"
	lessonPlanHttp "github.com/lessonforge/lessonplan-api/internal/modules/lessonplan/delivery/http"
	planRepo "github.com/lessonforge/lessonplan-api/internal/modules/lessonplan/repository"
	planService "github.com/lessonforge/lessonplan-api/internal/modules/lessonplan/service"
	tagHttp "github.com/lessonforge/lessonplan-api/internal/modules/tag/delivery/http"
	tagRepo "github.com/lessonforge/lessonplan-api/internal/modules/tag/repository"
	tagService "github.com/lessonforge/lessonplan-api/internal/modules/tag/service"
	userHttp "github.com/lessonforge/lessonplan-api/internal/modules/user/delivery/http"
	userRepo "github.com/lessonforge/lessonplan-api/internal/modules/user/repository"
	userService "github.com/lessonforge/lessonplan-api/internal/modules/user/service"
	"github.com/lessonforge/lessonplan-api/pkg/auth"
	"github.com/lessonforge/lessonplan-api/pkg/ratelimiter"
)

// ---------------------------------------------------------------------------
// in-memory repositories
// ---------------------------------------------------------------------------

type fakeUserRepo struct {
	users  map[uint]*entity.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*entity.User), nextID: 1}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	user.ID = f.nextID
	f.nextID++
	user.CreatedAt = time.Now()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) Transaction(ctx context.Context, fn func(repo userRepo.UserRepository) error) error {
	return fn(f)
}

type fakeTagRepo struct {
	tags   map[uint]*entity.Tag
	nextID uint
}

func newFakeTagRepo() *fakeTagRepo {
	return &fakeTagRepo{tags: make(map[uint]*entity.Tag), nextID: 1}
}

func (f *fakeTagRepo) Create(ctx context.Context, tag *entity.Tag) error {
	tag.ID = f.nextID
	f.nextID++
	tag.CreatedAt = time.Now()
	copied := *tag
	f.tags[tag.ID] = &copied
	return nil
}

func (f *fakeTagRepo) FindByID(ctx context.Context, id uint) (*entity.Tag, error) {
	tag, ok := f.tags[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return tag, nil
}

func (f *fakeTagRepo) FindByName(ctx context.Context, name string) (*entity.Tag, error) {
	for _, tag := range f.tags {
		if tag.Name == name {
			return tag, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTagRepo) FindByIDs(ctx context.Context, ids []uint) ([]entity.Tag, error) {
	out := []entity.Tag{}
	for _, id := range ids {
		if tag, ok := f.tags[id]; ok {
			out = append(out, *tag)
		}
	}
	return out, nil
}

func (f *fakeTagRepo) FindAll(ctx context.Context, offset, limit int) ([]*entity.Tag, error) {
	var out []*entity.Tag
	for _, tag := range f.tags {
		out = append(out, tag)
	}
	return out, nil
}

func (f *fakeTagRepo) Delete(ctx context.Context, id uint) error {
	delete(f.tags, id)
	return nil
}

func (f *fakeTagRepo) Transaction(ctx context.Context, fn func(repo tagRepo.TagRepository) error) error {
	return fn(f)
}

type fakePlanRepo struct {
	plans  map[uint]*entity.LessonPlan
	nextID uint
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: make(map[uint]*entity.LessonPlan), nextID: 1}
}

func (f *fakePlanRepo) Create(ctx context.Context, plan *entity.LessonPlan) error {
	plan.ID = f.nextID
	f.nextID++
	plan.CreatedAt = time.Now()
	copied := *plan
	f.plans[plan.ID] = &copied
	return nil
}

func (f *fakePlanRepo) FindByID(ctx context.Context, id uint) (*entity.LessonPlan, error) {
	plan, ok := f.plans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *plan
	return &copied, nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// FindAll mirrors the SQL filter semantics closely enough for handler tests:
// ILIKE substring matches and at-least-one-tag intersection.
func (f *fakePlanRepo) FindAll(ctx context.Context, filter planRepo.Filter, offset, limit int) ([]*entity.LessonPlan, error) {
	var out []*entity.LessonPlan
	for _, plan := range f.plans {
		if filter.Subject != "" && !containsFold(plan.Subject, filter.Subject) {
			continue
		}
		if filter.GradeLevel != "" && string(plan.GradeLevel) != filter.GradeLevel {
			continue
		}
		if filter.Difficulty != "" && (plan.Difficulty == nil || string(*plan.Difficulty) != filter.Difficulty) {
			continue
		}
		if filter.Search != "" &&
			!containsFold(plan.Title, filter.Search) &&
			!containsFold(plan.Subject, filter.Search) &&
			!containsFold(plan.Procedure, filter.Search) {
			continue
		}
		if len(filter.TagIDs) > 0 {
			matched := false
			for _, tag := range plan.Tags {
				for _, id := range filter.TagIDs {
					if tag.ID == id {
						matched = true
					}
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, plan)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakePlanRepo) FindByOwnerID(ctx context.Context, ownerID uint, offset, limit int) ([]*entity.LessonPlan, error) {
	var out []*entity.LessonPlan
	for _, plan := range f.plans {
		if plan.OwnerID == ownerID {
			out = append(out, plan)
		}
	}
	return out, nil
}

func (f *fakePlanRepo) Update(ctx context.Context, plan *entity.LessonPlan) error {
	stored, ok := f.plans[plan.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	tags := stored.Tags
	copied := *plan
	copied.Tags = tags
	f.plans[plan.ID] = &copied
	return nil
}

func (f *fakePlanRepo) ReplaceTags(ctx context.Context, plan *entity.LessonPlan, tags []entity.Tag) error {
	stored, ok := f.plans[plan.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Tags = tags
	plan.Tags = tags
	return nil
}

func (f *fakePlanRepo) Delete(ctx context.Context, id uint) error {
	delete(f.plans, id)
	return nil
}

func (f *fakePlanRepo) Transaction(ctx context.Context, fn func(repo planRepo.LessonPlanRepository) error) error {
	return fn(f)
}

// ---------------------------------------------------------------------------
// router under test
// ---------------------------------------------------------------------------

type testEnv struct {
	router *gin.Engine
	users  *fakeUserRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := newFakeUserRepo()
	tags := newFakeTagRepo()
	plans := newFakePlanRepo()

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars", 30*time.Minute)
	require.NoError(t, err)
	hasher := auth.NewHasherWithCost(bcrypt.MinCost)
	limiter := ratelimiter.New(nil, time.Second)

	authHandler := userHttp.NewAuthHandler(userService.NewAuthService(users, hasher, tokens, limiter))
	userHandler := userHttp.NewUserHandler(userService.NewUserService(users, hasher))
	tagHandler := tagHttp.NewTagHandler(tagService.NewTagService(tags))
	planHandler := lessonPlanHttp.NewLessonPlanHandler(planService.NewLessonPlanService(plans, tags))

	requireActive := middleware.NewAuthMiddleware(users, tokens).RequireActiveUser()

	router := gin.New()
	v1 := router.Group("/api/v1")

	v1.POST("/auth/register", authHandler.Register)
	v1.POST("/auth/login", authHandler.Login)

	v1.GET("/users/me", requireActive, userHandler.GetMe)
	v1.PUT("/users/me", requireActive, userHandler.UpdateMe)
	v1.GET("/users/:id", userHandler.GetByID)

	v1.POST("/lesson-plans/", requireActive, planHandler.Create)
	v1.GET("/lesson-plans/", planHandler.List)
	v1.GET("/lesson-plans/my", requireActive, planHandler.ListMine)
	v1.GET("/lesson-plans/:id", planHandler.GetByID)
	v1.PUT("/lesson-plans/:id", requireActive, planHandler.Update)
	v1.DELETE("/lesson-plans/:id", requireActive, planHandler.Delete)

	v1.POST("/tags/", requireActive, tagHandler.Create)
	v1.GET("/tags/", tagHandler.List)
	v1.GET("/tags/:id", tagHandler.GetByID)
	v1.DELETE("/tags/:id", requireActive, tagHandler.Delete)

	return &testEnv{router: router, users: users}
}

func (e *testEnv) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) registerAndLogin(t *testing.T, username, email string) string {
	t.Helper()

	body := fmt.Sprintf(`{"email":%q,"username":%q,"password":"pw123456"}`, email, username)
	rr := e.do(http.MethodPost, "/api/v1/auth/register", "", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	form := url.Values{"username": {username}, "password": {"pw123456"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	loginRR := httptest.NewRecorder()
	e.router.ServeHTTP(loginRR, req)
	require.Equal(t, http.StatusOK, loginRR.Code, loginRR.Body.String())

	var token struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(loginRR.Body.Bytes(), &token))
	require.Equal(t, "bearer", token.TokenType)
	return token.AccessToken
}

const planBody = `{
	"title": "Python Basics",
	"subject": "Computer Science",
	"grade_level": "high_school",
	"procedure": "Walk through variables and loops with live coding."
}`

// ---------------------------------------------------------------------------
// tests
// ---------------------------------------------------------------------------

func TestLessonPlanLifecycle(t *testing.T) {
	env := newTestEnv(t)
	aliceToken := env.registerAndLogin(t, "alice", "alice@example.com")

	// create
	rr := env.do(http.MethodPost, "/api/v1/lesson-plans/", aliceToken, planBody)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created entity.LessonPlan
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, 1, created.Version)
	assert.Equal(t, "Python Basics", created.Title)

	// round-trip
	rr = env.do(http.MethodGet, fmt.Sprintf("/api/v1/lesson-plans/%d", created.ID), "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var fetched entity.LessonPlan
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &fetched))
	assert.Equal(t, created.Title, fetched.Title)
	assert.Equal(t, created.Subject, fetched.Subject)
	assert.Equal(t, created.Procedure, fetched.Procedure)

	// partial update bumps version, leaves other fields alone
	rr = env.do(http.MethodPut, fmt.Sprintf("/api/v1/lesson-plans/%d", created.ID), aliceToken, `{"title":"New"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var updated entity.LessonPlan
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "New", updated.Title)
	assert.Equal(t, created.Subject, updated.Subject)

	// a different authenticated user may not touch it
	bobToken := env.registerAndLogin(t, "bob", "bob@example.com")
	rr = env.do(http.MethodPut, fmt.Sprintf("/api/v1/lesson-plans/%d", created.ID), bobToken, `{"title":"Mine now"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	rr = env.do(http.MethodDelete, fmt.Sprintf("/api/v1/lesson-plans/%d", created.ID), bobToken, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// owner deletes, record is gone
	rr = env.do(http.MethodDelete, fmt.Sprintf("/api/v1/lesson-plans/%d", created.ID), aliceToken, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = env.do(http.MethodGet, fmt.Sprintf("/api/v1/lesson-plans/%d", created.ID), "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLessonPlanMutationsRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/v1/lesson-plans/", "", planBody)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(http.MethodPut, "/api/v1/lesson-plans/1", "", `{"title":"New"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(http.MethodDelete, "/api/v1/lesson-plans/1", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(http.MethodPost, "/api/v1/tags/", "", `{"name":"math"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(http.MethodPost, "/api/v1/lesson-plans/", "garbage-token", planBody)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateLessonPlan_RejectsShortProcedure(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "alice", "alice@example.com")

	body := `{"title":"T","subject":"S","grade_level":"college","procedure":"short"}`
	rr := env.do(http.MethodPost, "/api/v1/lesson-plans/", token, body)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListLessonPlans_Search(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "alice", "alice@example.com")

	rr := env.do(http.MethodPost, "/api/v1/lesson-plans/", token, planBody)
	require.Equal(t, http.StatusCreated, rr.Code)

	other := `{"title":"Watercolor Techniques","subject":"Art","grade_level":"elementary","procedure":"Demonstrate wet-on-wet blending for ten minutes."}`
	rr = env.do(http.MethodPost, "/api/v1/lesson-plans/", token, other)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = env.do(http.MethodGet, "/api/v1/lesson-plans/?search=python", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var plans []entity.LessonPlan
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &plans))
	require.Len(t, plans, 1)
	assert.Equal(t, "Python Basics", plans[0].Title)
}

func TestListLessonPlans_TagFilters(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "alice", "alice@example.com")

	rr := env.do(http.MethodPost, "/api/v1/lesson-plans/", token, planBody)
	require.Equal(t, http.StatusCreated, rr.Code)

	// malformed tag list is a client error
	rr = env.do(http.MethodGet, "/api/v1/lesson-plans/?tag_ids=abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// valid but unattached tags produce an empty list
	rr = env.do(http.MethodGet, "/api/v1/lesson-plans/?tag_ids=1,2", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var plans []entity.LessonPlan
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &plans))
	assert.Empty(t, plans)
}

func TestListLessonPlans_RejectsBadPagination(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/api/v1/lesson-plans/?limit=101", "", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(http.MethodGet, "/api/v1/lesson-plans/?skip=-1", "", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListMine_OnlyOwnPlans(t *testing.T) {
	env := newTestEnv(t)
	aliceToken := env.registerAndLogin(t, "alice", "alice@example.com")
	bobToken := env.registerAndLogin(t, "bob", "bob@example.com")

	rr := env.do(http.MethodPost, "/api/v1/lesson-plans/", aliceToken, planBody)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = env.do(http.MethodGet, "/api/v1/lesson-plans/my", bobToken, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var plans []entity.LessonPlan
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &plans))
	assert.Empty(t, plans)
}

func TestUsersMe(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "alice", "alice@example.com")

	rr := env.do(http.MethodGet, "/api/v1/users/me", token, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	assert.Equal(t, "alice", payload["username"])
	assert.NotContains(t, payload, "hashed_password")

	rr = env.do(http.MethodGet, "/api/v1/users/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestUsersGetByID_Public(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "alice", "alice@example.com")

	rr := env.do(http.MethodGet, "/api/v1/users/1", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	assert.Equal(t, "alice", payload["username"])
	assert.NotContains(t, payload, "hashed_password")

	rr = env.do(http.MethodGet, "/api/v1/users/999", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestInactiveUserIsRejected(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "alice", "alice@example.com")

	env.users.users[1].IsActive = false

	rr := env.do(http.MethodGet, "/api/v1/users/me", token, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "inactive")
}

func TestTagEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "alice", "alice@example.com")

	rr := env.do(http.MethodPost, "/api/v1/tags/", token, `{"name":"math","description":"numbers"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created entity.Tag
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	// duplicate name conflicts even with another description
	rr = env.do(http.MethodPost, "/api/v1/tags/", token, `{"name":"math","description":"other"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// tags are deletable by any authenticated user, no ownership
	bobToken := env.registerAndLogin(t, "bob", "bob@example.com")
	rr = env.do(http.MethodDelete, fmt.Sprintf("/api/v1/tags/%d", created.ID), bobToken, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = env.do(http.MethodGet, fmt.Sprintf("/api/v1/tags/%d", created.ID), "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
