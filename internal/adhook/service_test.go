package adhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/manash/adhook/internal/apierr"
	"github.com/manash/adhook/internal/image"
	"github.com/manash/adhook/internal/provider"
	"github.com/manash/adhook/internal/store"
	"github.com/manash/adhook/pkg/models"
)

type fakeImages struct {
	resp      *models.Response
	err       error
	generates []*models.Request
	edits     []*models.EditRequest
}

func (f *fakeImages) Generate(_ context.Context, req *models.Request) (*models.Response, error) {
	f.generates = append(f.generates, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeImages) Edit(_ context.Context, req *models.EditRequest) (*models.Response, error) {
	f.edits = append(f.edits, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fakeWriter struct {
	content string
	err     error
	calls   []*models.ChatRequest
}

func (f *fakeWriter) Complete(_ context.Context, req *models.ChatRequest) (string, error) {
	f.calls = append(f.calls, req)
	return f.content, f.err
}

type upload struct {
	key         string
	data        string
	contentType string
}

type fakeBucket struct {
	mu        sync.Mutex
	ensureErr error
	uploadErr map[string]error
	ensures   int
	uploads   []upload
}

func (b *fakeBucket) Ensure(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensures++
	return b.ensureErr
}

func (b *fakeBucket) Upload(_ context.Context, key string, data []byte, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.uploadErr[key]; err != nil {
		return err
	}
	b.uploads = append(b.uploads, upload{key: key, data: string(data), contentType: contentType})
	return nil
}

func (b *fakeBucket) PublicURL(key string) string {
	return "https://cdn.test/adhook/" + key
}

type fakeFetcher struct {
	blobs map[string]*image.Blob
	delay map[string]time.Duration
}

func (f *fakeFetcher) Fetch(ctx context.Context, ref string) (*image.Blob, error) {
	if d := f.delay[ref]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	blob, ok := f.blobs[ref]
	if !ok {
		return nil, fmt.Errorf("fetch %s failed: 404", ref)
	}
	return blob, nil
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, mutate func(*Deps)) (*Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	d := Deps{
		Images:            &fakeImages{resp: &models.Response{}},
		Writer:            &fakeWriter{content: `{"variations":[]}`},
		Store:             mem,
		Bucket:            &fakeBucket{},
		Fetcher:           &fakeFetcher{},
		UploadConcurrency: 3,
		Now:               func() time.Time { return fixedNow },
	}
	if mutate != nil {
		mutate(&d)
	}
	return New(d), mem
}

func assertAPIError(t *testing.T, err error, status int, msg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("error = nil, want %d %q", status, msg)
	}
	if got := apierr.StatusOf(err); got != status {
		t.Errorf("status = %d, want %d", got, status)
	}
	if msg != "" && err.Error() != msg {
		t.Errorf("message = %q, want %q", err.Error(), msg)
	}
}

func TestParseSavePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    SavePolicy
		wantErr bool
	}{
		{"", PolicyRehost, false},
		{"rehost", PolicyRehost, false},
		{" Passthrough ", PolicyPassthrough, false},
		{"copy", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSavePolicy(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseSavePolicy(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestGenerateCopy_DefaultsPlatform(t *testing.T) {
	writer := &fakeWriter{content: "{\n  \"variations\": [ {\"headline\": \"Hi\"} ]\n}"}
	svc, _ := newTestService(t, func(d *Deps) { d.Writer = writer })

	got, err := svc.GenerateCopy(context.Background(), CopyInput{ProductName: "Widget", Description: "A widget"})
	if err != nil {
		t.Fatalf("GenerateCopy() error = %v", err)
	}
	if string(got) != `{"variations":[{"headline":"Hi"}]}` {
		t.Errorf("GenerateCopy() = %s", got)
	}

	if len(writer.calls) != 1 {
		t.Fatalf("provider calls = %d, want 1", len(writer.calls))
	}
	req := writer.calls[0]
	if req.System != "You are a senior DTC ad copywriter. Always return valid JSON." {
		t.Errorf("System = %q", req.System)
	}
	if req.Model != "gpt-4o-mini" || req.Temperature != 0.7 || !req.JSONResponse {
		t.Errorf("request = %+v", req)
	}
	for _, line := range []string{"Product: Widget", "Description: A widget", "Platform: Facebook", "Audience: buyers on Facebook."} {
		if !strings.Contains(req.User, line) {
			t.Errorf("prompt missing %q", line)
		}
	}
}

func TestGenerateCopy_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   CopyInput
	}{
		{"no product", CopyInput{Description: "d"}},
		{"no description", CopyInput{ProductName: "p"}},
		{"empty", CopyInput{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer := &fakeWriter{content: "{}"}
			svc, _ := newTestService(t, func(d *Deps) { d.Writer = writer })

			_, err := svc.GenerateCopy(context.Background(), tt.in)
			assertAPIError(t, err, http.StatusBadRequest, "productName and description required")
			if len(writer.calls) != 0 {
				t.Errorf("provider called %d times", len(writer.calls))
			}
		})
	}
}

func TestGenerateCopy_CredentialCheckedFirst(t *testing.T) {
	svc, _ := newTestService(t, func(d *Deps) { d.Writer = nil })

	_, err := svc.GenerateCopy(context.Background(), CopyInput{})
	assertAPIError(t, err, http.StatusInternalServerError, "Missing OPENAI_API_KEY")
	if apierr.KindOf(err) != apierr.KindConfig {
		t.Errorf("kind = %q", apierr.KindOf(err))
	}
}

func TestGenerateCopy_UpstreamFailures(t *testing.T) {
	body := `{"error":{"message":"Incorrect API key provided"}}`
	writer := &fakeWriter{err: &provider.UpstreamError{Op: provider.ErrCompletionFailed, StatusCode: 401, Body: body}}
	svc, _ := newTestService(t, func(d *Deps) { d.Writer = writer })

	_, err := svc.GenerateCopy(context.Background(), CopyInput{ProductName: "p", Description: "d"})
	assertAPIError(t, err, http.StatusInternalServerError, body)

	writer = &fakeWriter{content: "not json"}
	svc, _ = newTestService(t, func(d *Deps) { d.Writer = writer })
	_, err = svc.GenerateCopy(context.Background(), CopyInput{ProductName: "p", Description: "d"})
	assertAPIError(t, err, http.StatusInternalServerError, "")
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Errorf("error = %v, want JSON syntax error", err)
	}
}

func TestGenerateImages(t *testing.T) {
	two := 2
	tests := []struct {
		name      string
		in        ImageInput
		wantSize  string
		wantCount int
	}{
		{"defaults", ImageInput{Prompt: "a cat"}, "1024x1024", 4},
		{"legacy portrait", ImageInput{Prompt: "a cat", Size: "1024x1792"}, "1024x1536", 4},
		{"unknown size", ImageInput{Prompt: "a cat", Size: "640x480"}, "1024x1024", 4},
		{"explicit n", ImageInput{Prompt: "a cat", N: &two, Size: "auto"}, "auto", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			images := &fakeImages{resp: &models.Response{Images: []models.GeneratedImage{
				{URL: "https://img/1.png"},
				{Base64: "QUJD"},
				{},
				{URL: "https://img/1.png"},
			}}}
			svc, _ := newTestService(t, func(d *Deps) { d.Images = images })

			urls, err := svc.GenerateImages(context.Background(), tt.in)
			if err != nil {
				t.Fatalf("GenerateImages() error = %v", err)
			}
			want := []string{"https://img/1.png", "data:image/png;base64,QUJD", "https://img/1.png"}
			if !reflect.DeepEqual(urls, want) {
				t.Errorf("urls = %v, want %v", urls, want)
			}
			req := images.generates[0]
			if req.Model != "gpt-image-1" || req.Size != tt.wantSize || req.Count != tt.wantCount {
				t.Errorf("request = %+v", req)
			}
		})
	}
}

func TestGenerateImages_Errors(t *testing.T) {
	svc, _ := newTestService(t, func(d *Deps) { d.Images = nil })
	_, err := svc.GenerateImages(context.Background(), ImageInput{})
	assertAPIError(t, err, http.StatusInternalServerError, "Missing OPENAI_API_KEY")

	images := &fakeImages{}
	svc, _ = newTestService(t, func(d *Deps) { d.Images = images })
	_, err = svc.GenerateImages(context.Background(), ImageInput{})
	assertAPIError(t, err, http.StatusBadRequest, "prompt required")
	if len(images.generates) != 0 {
		t.Error("provider called without prompt")
	}

	zero := 0
	_, err = svc.GenerateImages(context.Background(), ImageInput{Prompt: "p", N: &zero})
	assertAPIError(t, err, http.StatusBadRequest, "n must be a positive integer")
	if len(images.generates) != 0 {
		t.Error("provider called with invalid n")
	}

	images = &fakeImages{err: &provider.UpstreamError{StatusCode: 400, Body: "bad size"}}
	svc, _ = newTestService(t, func(d *Deps) { d.Images = images })
	_, err = svc.GenerateImages(context.Background(), ImageInput{Prompt: "p"})
	assertAPIError(t, err, http.StatusInternalServerError, "bad size")
}

func TestEditImage_ValidationOrder(t *testing.T) {
	tests := []struct {
		name       string
		noProvider bool
		in         EditInput
		wantStatus int
		wantMsg    string
	}{
		{"credential first", true, EditInput{}, 500, "Missing OPENAI_API_KEY"},
		{"image before prompt", false, EditInput{}, 400, "image file required"},
		{"prompt", false, EditInput{Image: []byte("png")}, 400, "prompt required"},
		{"count", false, EditInput{Image: []byte("png"), Prompt: "p"}, 400, "n must be a positive integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			images := &fakeImages{}
			svc, _ := newTestService(t, func(d *Deps) {
				d.Images = images
				if tt.noProvider {
					d.Images = nil
				}
			})

			_, err := svc.EditImage(context.Background(), tt.in)
			assertAPIError(t, err, tt.wantStatus, tt.wantMsg)
			if len(images.edits) != 0 {
				t.Error("provider called before validation passed")
			}
		})
	}
}

func TestEditImage_Forwards(t *testing.T) {
	images := &fakeImages{resp: &models.Response{Images: []models.GeneratedImage{{Base64: "eA=="}}}}
	svc, _ := newTestService(t, func(d *Deps) { d.Images = images })

	urls, err := svc.EditImage(context.Background(), EditInput{
		Image:  []byte("img"),
		Mask:   []byte("mask"),
		Prompt: "make it blue",
		Size:   "1792x1024",
		N:      1,
	})
	if err != nil {
		t.Fatalf("EditImage() error = %v", err)
	}
	if len(urls) != 1 || urls[0] != "data:image/png;base64,eA==" {
		t.Errorf("urls = %v", urls)
	}
	req := images.edits[0]
	if req.Size != "1792x1024" {
		t.Errorf("Size = %q, want forwarded as given", req.Size)
	}
	if string(req.Mask) != "mask" || req.Count != 1 || req.Model != "gpt-image-1" {
		t.Errorf("request = %+v", req)
	}
}

func TestEditImage_EmptyUploadForwarded(t *testing.T) {
	images := &fakeImages{resp: &models.Response{}}
	svc, _ := newTestService(t, func(d *Deps) { d.Images = images })

	if _, err := svc.EditImage(context.Background(), EditInput{Image: []byte{}, Prompt: "p", N: 1}); err != nil {
		t.Fatalf("EditImage() error = %v", err)
	}
	if len(images.edits) != 1 {
		t.Errorf("provider edits = %d, want 1", len(images.edits))
	}
}

func TestSaveCopy_ValidationInsertsNothing(t *testing.T) {
	valid := json.RawMessage(`[{"headline":"h"}]`)
	tests := []struct {
		name string
		in   SaveCopyInput
	}{
		{"no product", SaveCopyInput{Description: "d", Platform: "Facebook", Variations: valid}},
		{"no description", SaveCopyInput{ProductName: "p", Platform: "Facebook", Variations: valid}},
		{"no platform", SaveCopyInput{ProductName: "p", Description: "d", Variations: valid}},
		{"no variations", SaveCopyInput{ProductName: "p", Description: "d", Platform: "Facebook"}},
		{"object variations", SaveCopyInput{ProductName: "p", Description: "d", Platform: "Facebook", Variations: json.RawMessage(`{"variations":[]}`)}},
		{"null variations", SaveCopyInput{ProductName: "p", Description: "d", Platform: "Facebook", Variations: json.RawMessage(`null`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mem := newTestService(t, nil)
			err := svc.SaveCopy(context.Background(), tt.in)
			assertAPIError(t, err, http.StatusBadRequest, "Missing fields")
			if mem.Len() != 0 {
				t.Errorf("rows = %d, want 0", mem.Len())
			}
		})
	}
}

func TestSaveCopy_RoundTripsThroughList(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	list := []models.CopyVariation{
		{Headline: "A", PrimaryText: "One.", CTA: "Shop", Keywords: []string{"x"}},
		{Headline: "B", PrimaryText: "Two.", CTA: "Buy", Keywords: []string{}},
		{Headline: "C", PrimaryText: "Three.", CTA: "Go", Keywords: []string{"y", "z"}},
	}
	raw, _ := json.Marshal(list)
	user := "user-1"

	err := svc.SaveCopy(ctx, SaveCopyInput{
		ProductName: "Widget", Description: "d", Platform: "Instagram", Variations: raw, UserID: &user,
	})
	if err != nil {
		t.Fatalf("SaveCopy() error = %v", err)
	}

	rows, err := svc.ListGenerations(ctx)
	if err != nil {
		t.Fatalf("ListGenerations() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	got, ok := rows[0].Variations.CopyVariations()
	if !ok || !reflect.DeepEqual(got, list) {
		t.Errorf("variations = %+v, want %+v", got, list)
	}
	if rows[0].UserID == nil || *rows[0].UserID != user || rows[0].Platform != "Instagram" {
		t.Errorf("row = %+v", rows[0])
	}
}

func TestSaveCopy_StoreErrors(t *testing.T) {
	svc, _ := newTestService(t, func(d *Deps) { d.Store = nil })
	err := svc.SaveCopy(context.Background(), SaveCopyInput{})
	assertAPIError(t, err, http.StatusInternalServerError, "Supabase env vars missing")

	var typedNil *store.Memory
	svc, _ = newTestService(t, func(d *Deps) { d.Store = typedNil })
	err = svc.SaveCopy(context.Background(), SaveCopyInput{})
	assertAPIError(t, err, http.StatusInternalServerError, "Supabase env vars missing")
}

func TestSaveImages_Rehost(t *testing.T) {
	b := &fakeBucket{}
	fetcher := &fakeFetcher{
		blobs: map[string]*image.Blob{
			"https://img/a":    {Data: []byte("A"), ContentType: "image/png"},
			"https://img/b":    {Data: []byte("B"), ContentType: "image/jpeg"},
			"data:image/webp;": {Data: []byte("C"), ContentType: "image/webp"},
		},
		// The first item finishes last.
		delay: map[string]time.Duration{"https://img/a": 30 * time.Millisecond},
	}
	svc, mem := newTestService(t, func(d *Deps) {
		d.Bucket = b
		d.Fetcher = fetcher
	})

	images, err := svc.SaveImages(context.Background(), SaveImagesInput{
		ProductName: "Super Widget!",
		Description: "d",
		Prompt:      "a widget",
		URLs:        []string{"https://img/a", "https://img/b", "data:image/webp;"},
	})
	if err != nil {
		t.Fatalf("SaveImages() error = %v", err)
	}

	ms := fixedNow.UnixMilli()
	want := []string{
		fmt.Sprintf("https://cdn.test/adhook/super-widget/%d/img-1.png", ms),
		fmt.Sprintf("https://cdn.test/adhook/super-widget/%d/img-2.jpg", ms),
		fmt.Sprintf("https://cdn.test/adhook/super-widget/%d/img-3.webp", ms),
	}
	if !reflect.DeepEqual(images, want) {
		t.Errorf("images = %v, want %v", images, want)
	}
	if b.ensures != 1 || len(b.uploads) != 3 {
		t.Errorf("ensures = %d, uploads = %d", b.ensures, len(b.uploads))
	}

	rows, _ := mem.ListRecent(context.Background(), 20)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	res, ok := rows[0].Variations.ImageResult()
	if !ok || res.Type != "images" || res.Prompt != "a widget" || !reflect.DeepEqual(res.Images, want) {
		t.Errorf("stored result = %+v", res)
	}
	if rows[0].Platform != "Facebook" {
		t.Errorf("Platform = %q, want Facebook", rows[0].Platform)
	}
}

func TestSaveImages_FailureAbortsWithoutRecord(t *testing.T) {
	tests := []struct {
		name    string
		bucket  *fakeBucket
		wantMsg string
	}{
		{"fetch", &fakeBucket{}, "fetch https://img/missing failed: 404"},
		{"ensure", &fakeBucket{ensureErr: errors.New("permission denied")}, "permission denied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fakeFetcher{blobs: map[string]*image.Blob{"https://img/a": {Data: []byte("A"), ContentType: "image/png"}}}
			svc, mem := newTestService(t, func(d *Deps) {
				d.Bucket = tt.bucket
				d.Fetcher = fetcher
				d.UploadConcurrency = 1
			})

			_, err := svc.SaveImages(context.Background(), SaveImagesInput{
				ProductName: "p", Description: "d", URLs: []string{"https://img/a", "https://img/missing"},
			})
			assertAPIError(t, err, http.StatusInternalServerError, tt.wantMsg)
			if mem.Len() != 0 {
				t.Errorf("rows = %d, want 0", mem.Len())
			}
		})
	}
}

func TestSaveImages_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   SaveImagesInput
	}{
		{"no urls", SaveImagesInput{ProductName: "p", Description: "d"}},
		{"empty urls", SaveImagesInput{ProductName: "p", Description: "d", URLs: []string{}}},
		{"no product", SaveImagesInput{Description: "d", URLs: []string{"u"}}},
		{"no description", SaveImagesInput{ProductName: "p", URLs: []string{"u"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBucket{}
			svc, mem := newTestService(t, func(d *Deps) { d.Bucket = b })
			_, err := svc.SaveImages(context.Background(), tt.in)
			assertAPIError(t, err, http.StatusBadRequest, "productName, description, urls required")
			if mem.Len() != 0 || b.ensures != 0 {
				t.Errorf("side effects: rows = %d, ensures = %d", mem.Len(), b.ensures)
			}
		})
	}
}

func TestSaveImages_Passthrough(t *testing.T) {
	svc, mem := newTestService(t, func(d *Deps) {
		d.SavePolicy = PolicyPassthrough
		d.Bucket = nil
	})

	urls := []string{"https://img/a", "data:image/png;base64,QQ=="}
	images, err := svc.SaveImages(context.Background(), SaveImagesInput{
		ProductName: "p", Description: "d", Platform: "TikTok", URLs: urls,
	})
	if err != nil {
		t.Fatalf("SaveImages() error = %v", err)
	}
	if images != nil {
		t.Errorf("images = %v, want nil", images)
	}

	rows, _ := mem.ListRecent(context.Background(), 20)
	res, ok := rows[0].Variations.ImageResult()
	if !ok || !reflect.DeepEqual(res.Images, urls) {
		t.Errorf("stored = %+v", res)
	}
}

func TestSaveImages_RehostNeedsBucket(t *testing.T) {
	svc, _ := newTestService(t, func(d *Deps) { d.Bucket = nil })
	_, err := svc.SaveImages(context.Background(), SaveImagesInput{ProductName: "p", Description: "d", URLs: []string{"u"}})
	assertAPIError(t, err, http.StatusInternalServerError, "Supabase env vars missing")
}

func TestGenerateImages_AutoSave(t *testing.T) {
	images := &fakeImages{resp: &models.Response{Images: []models.GeneratedImage{{URL: "https://img/a"}}}}
	svc, mem := newTestService(t, func(d *Deps) {
		d.Images = images
		d.SavePolicy = PolicyPassthrough
	})

	urls, err := svc.GenerateImages(context.Background(), ImageInput{
		Prompt: "p",
		Save:   &AutoSave{ProductName: "Widget", Description: "d"},
	})
	if err != nil || len(urls) != 1 {
		t.Fatalf("GenerateImages() = %v, %v", urls, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := svc.Drain(ctx); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if mem.Len() != 1 {
		t.Fatalf("rows = %d, want 1", mem.Len())
	}
	rows, _ := mem.ListRecent(ctx, 20)
	res, _ := rows[0].Variations.ImageResult()
	if res == nil || res.Prompt != "p" || res.Images[0] != "https://img/a" {
		t.Errorf("stored = %+v", res)
	}
}

func TestGenerateImages_AutoSaveFailureIsNotSurfaced(t *testing.T) {
	images := &fakeImages{resp: &models.Response{Images: []models.GeneratedImage{{URL: "https://img/a"}}}}
	svc, mem := newTestService(t, func(d *Deps) { d.Images = images })

	_, err := svc.GenerateImages(context.Background(), ImageInput{Prompt: "p", Save: &AutoSave{}})
	if err != nil {
		t.Fatalf("GenerateImages() error = %v", err)
	}
	svc.Drain(context.Background())
	if mem.Len() != 0 {
		t.Errorf("rows = %d, want 0", mem.Len())
	}
}

func TestDrain_RejectsNewTasks(t *testing.T) {
	svc, _ := newTestService(t, nil)
	if err := svc.Drain(context.Background()); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	err := svc.goBackground("late", func(context.Context) error { return nil })
	if !errors.Is(err, errDraining) {
		t.Errorf("goBackground() error = %v, want errDraining", err)
	}
}

func TestListGenerations(t *testing.T) {
	svc, mem := newTestService(t, nil)
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		mem.Insert(ctx, &models.Generation{ProductName: "p", CreatedAt: fixedNow.Add(time.Duration(i) * time.Second)})
	}

	rows, err := svc.ListGenerations(ctx)
	if err != nil {
		t.Fatalf("ListGenerations() error = %v", err)
	}
	if len(rows) != 20 {
		t.Fatalf("rows = %d, want 20", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].CreatedAt.After(rows[i-1].CreatedAt) {
			t.Fatal("rows not newest first")
		}
	}

	svc, _ = newTestService(t, func(d *Deps) { d.Store = nil })
	_, err = svc.ListGenerations(ctx)
	assertAPIError(t, err, http.StatusInternalServerError, "Supabase env vars missing")
}
