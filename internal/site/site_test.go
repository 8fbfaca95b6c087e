package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wangQuinn/portfolio/internal/config"
	"github.com/wangQuinn/portfolio/internal/content"
	"github.com/wangQuinn/portfolio/internal/frame"
	"github.com/wangQuinn/portfolio/internal/mail"
	"github.com/wangQuinn/portfolio/internal/store"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// instantScheduler fires every tick right away on its own goroutine.
type instantScheduler struct{}

func (instantScheduler) Schedule(_ time.Duration, fn func()) func() {
	t := time.AfterFunc(0, fn)
	return func() { t.Stop() }
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Contact
	err  error
}

func (f *fakeMailer) Send(_ context.Context, c mail.Contact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, c)
	return nil
}

type testEnv struct {
	srv    *Server
	store  *store.Store
	mailer *fakeMailer
	frames *frame.ManualScheduler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Server:  config.ServerConfig{Addr: ":0", Mode: gin.TestMode},
		Storage: config.StorageConfig{RetentionDays: 365, CleanupSchedule: "@daily"},
		Admin:   config.AdminConfig{Username: "quinn", Password: "s3cret"},
		Effects: config.EffectsConfig{FPS: 30, Stars: 5},
	}
	portfolio, err := content.Load("")
	require.NoError(t, err)

	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "site.db"), store.Options{Salt: "test"})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	env := &testEnv{store: st, mailer: &fakeMailer{}, frames: frame.NewManualScheduler()}
	env.srv, err = New(Options{
		Config:    cfg,
		Portfolio: portfolio,
		Store:     st,
		Mailer:    env.mailer,
		Logger:    zerolog.Nop(),
		Typing:    instantScheduler{},
		Frames:    func() frame.Scheduler { return env.frames },
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		env.srv.Close()
		env.srv.background.Wait()
	})
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return e.do(req)
}

func (e *testEnv) post(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return e.do(req)
}

func cookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	require.Failf(t, "cookie not set", "%s", name)
	return nil
}

func document(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestNew_SyncsOutboundLinks(t *testing.T) {
	env := newTestEnv(t)

	links, err := env.store.Links(context.Background(), 0)
	require.NoError(t, err)
	codes := make([]string, len(links))
	for i, l := range links {
		codes[i] = l.Code
	}
	assert.ElementsMatch(t, []string{"projects-personal-portfolio-website", "github", "linkedin"}, codes)
}

func TestIndex(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0.1.1", cookie(t, rec, navCookie).Value)

	doc := document(t, rec)
	assert.Equal(t, "Quinn Wang - Portfolio", doc.Find("title").Text())
	assert.Equal(t, 6, doc.Find(".directory .file").Length())
	assert.Equal(t, "quinn wang.txt", doc.Find(".directory .file.active").Text())

	heading, ok := doc.Find(".heading [data-typewriter]").Attr("data-typewriter")
	require.True(t, ok)
	assert.Equal(t, "/typewriter/intro/heading/stream", heading)

	tagline, ok := doc.Find(".tagline [data-typewriter]").Attr("data-typewriter")
	require.True(t, ok)
	assert.Equal(t, "/typewriter/intro/tagline/stream", tagline)
	assert.Equal(t, 1, doc.Find("canvas[data-effect=starfield]").Length())
}

func TestIndex_SelectSection(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/?section=projects")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "4.1.1", cookie(t, rec, navCookie).Value)

	doc := document(t, rec)
	assert.Equal(t, "projects.txt", doc.Find(".directory .file.active").Text())
	href, _ := doc.Find(".project h2 a").Attr("href")
	assert.Equal(t, "/go/projects-personal-portfolio-website", href)

	// unknown ids keep the current section
	rec = env.get("/?section=nope", &http.Cookie{Name: navCookie, Value: "2.1.1"})
	assert.Equal(t, "2.1.1", cookie(t, rec, navCookie).Value)
}

func TestIndex_ReopensClosedWindow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/?section=about", &http.Cookie{Name: navCookie, Value: "0.1.0"})
	assert.Equal(t, "1.1.1", cookie(t, rec, navCookie).Value)
	assert.Equal(t, 1, document(t, rec).Find(".tesseract[data-effect=tesseract]").Length())
}

func TestShowSection(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/sections/contact")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/?section=contact", rec.Header().Get("HX-Push-Url"))
	assert.Equal(t, "5.1.1", cookie(t, rec, navCookie).Value)

	doc := document(t, rec)
	assert.Equal(t, 1, doc.Find("#window").Length())
	assert.Equal(t, 0, doc.Find("html > head > title").Length())
	assert.Equal(t, "contact.txt", doc.Find(".file.active").Text())
	assert.Equal(t, 2, doc.Find(".links a").Length())
	assert.Equal(t, 1, doc.Find("#contact-slot").Length())

	assert.Equal(t, http.StatusNotFound, env.get("/sections/nope").Code)
}

func TestWindowFragments(t *testing.T) {
	env := newTestEnv(t)
	start := &http.Cookie{Name: navCookie, Value: "2.1.1"}

	rec := env.post("/directory/toggle", nil, start)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2.0.1", cookie(t, rec, navCookie).Value)
	doc := document(t, rec)
	assert.Equal(t, 0, doc.Find(".directory").Length())
	assert.Equal(t, 1, doc.Find("#section-education").Length())

	rec = env.post("/directory/toggle", nil, cookie(t, rec, navCookie))
	assert.Equal(t, "2.1.1", cookie(t, rec, navCookie).Value)

	rec = env.post("/window/close", nil, start)
	assert.Equal(t, "2.1.0", cookie(t, rec, navCookie).Value)
	doc = document(t, rec)
	assert.Equal(t, 0, doc.Find(".window").Length())
	assert.Contains(t, doc.Find(".reopen").Text(), "Quinn Wang")

	rec = env.post("/window/open", nil, cookie(t, rec, navCookie))
	assert.Equal(t, "2.1.1", cookie(t, rec, navCookie).Value)
	assert.Equal(t, 1, document(t, rec).Find(".window").Length())
}

func TestWindowFragments_BadCookieStartsFresh(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post("/window/close", nil, &http.Cookie{Name: navCookie, Value: "garbage"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0.1.0", cookie(t, rec, navCookie).Value)
}

func TestFollowLink(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/go/github")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://github.com/wangQuinn", rec.Header().Get("Location"))

	links, err := env.store.Links(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "github", links[0].Code)
	assert.EqualValues(t, 1, links[0].Clicks)

	assert.Equal(t, http.StatusNotFound, env.get("/go/myspace").Code)
}

func TestContact(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/contact-form")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, document(t, rec).Find("form[hx-post='/contact'] input[name=fullName]").Length())

	rec = env.post("/contact", url.Values{
		"fullName": {"  Ada  "},
		"email":    {"ada@example.com"},
		"message":  {"Hello there"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Thank you for your message")

	require.Len(t, env.mailer.sent, 1)
	assert.Equal(t, "Ada", env.mailer.sent[0].Name)

	msgs, err := env.store.Messages(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Delivered)
}

func TestContact_MailFailureKeepsMessage(t *testing.T) {
	env := newTestEnv(t)
	env.mailer.err = errors.New("relay down")

	rec := env.post("/contact", url.Values{
		"fullName": {"Ada"},
		"email":    {"ada@example.com"},
		"message":  {"Hello"},
	})
	assert.Contains(t, rec.Body.String(), "Thank you for your message")

	msgs, err := env.store.Messages(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].Delivered)
}

func TestContact_Invalid(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post("/contact", url.Values{
		"fullName": {"Ada"},
		"email":    {"not-an-email"},
		"message":  {"Hello"},
	})
	assert.Contains(t, rec.Body.String(), "valid email")
	assert.Empty(t, env.mailer.sent)

	msgs, err := env.store.Messages(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestVisitorTracking(t *testing.T) {
	env := newTestEnv(t)

	env.get("/")
	env.get("/sections/about")
	env.get("/privacy")
	env.get("/static/site.css")
	env.get("/go/github")
	dnt := httptest.NewRequest(http.MethodGet, "/", nil)
	dnt.Header.Set("DNT", "1")
	env.do(dnt)

	env.srv.background.Wait()
	visitors, err := env.store.RecentVisitors(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, visitors, 2)

	paths := []string{visitors[0].Path, visitors[1].Path}
	assert.ElementsMatch(t, []string{"/", "/sections/about"}, paths)
	for _, v := range visitors {
		assert.Len(t, v.HashedIP, 16)
		assert.NotContains(t, v.HashedIP, "192.0.2.1")
	}
}

func TestStaticAndPrivacy(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/static/site.js")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "EventSource")

	rec = env.get("/privacy")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, document(t, rec).Text(), "365 days")
}

func TestParseSchedule(t *testing.T) {
	_, err := ParseSchedule("@daily")
	assert.NoError(t, err)
	_, err = ParseSchedule("30 3 * * *")
	assert.NoError(t, err)
	_, err = ParseSchedule("every so often")
	assert.Error(t, err)
}

func TestCleanup_UsesRetention(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.store.RecordVisit(ctx, "1.2.3.4", "ua", "/"))
	n, err := env.srv.cleanup(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 365*24*time.Hour, env.srv.retention())
}

func TestStopMaintenance_WaitsForRunningJob(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	c := cron.New()
	c.Schedule(cron.ConstantDelaySchedule{Delay: time.Second}, cron.FuncJob(func() {
		once.Do(func() { close(started) })
		<-release
	}))
	c.Start()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("job never ran")
	}

	stopped := make(chan struct{})
	go func() {
		stopMaintenance(c)
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("stopMaintenance returned while the job was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("stopMaintenance did not return after the job finished")
	}
}
