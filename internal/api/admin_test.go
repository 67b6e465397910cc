package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreateEvent_SendsMultipartFormWithImage(t *testing.T) {
	var gotContentType string
	var gotFields map[string]string
	var gotFilename string
	var gotFileData []byte

	appServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("multipartフォームのパースに失敗した: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		gotFields = map[string]string{}
		for key := range r.MultipartForm.Value {
			gotFields[key] = r.FormValue(key)
		}
		file, header, err := r.FormFile("image")
		if err == nil {
			defer file.Close()
			gotFilename = header.Filename
			gotFileData, _ = io.ReadAll(file)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 1, "name": "展示会"}`))
	}))
	defer appServer.Close()

	c := newTestClient(t, appServer.URL, "http://auth.invalid")

	event, err := c.CreateEvent(context.Background(), EventInput{
		ParentEvent: 3,
		Name:        "展示会",
		Description: "<p>作品紹介</p>",
		Category:    2,
	}, &ImageAttachment{Filename: "poster.png", Data: []byte{0x89, 0x50, 0x4e, 0x47}})
	if err != nil {
		t.Fatalf("CreateEvent がエラーを返した: %v", err)
	}
	if event.ID != 1 {
		t.Errorf("event.ID = %d, want 1", event.ID)
	}

	if !strings.HasPrefix(gotContentType, "multipart/form-data") {
		t.Errorf("Content-Type = %q, want multipart/form-data", gotContentType)
	}
	want := map[string]string{
		"parent_event": "3",
		"name":         "展示会",
		"description":  "<p>作品紹介</p>",
		"category":     "2",
	}
	for key, value := range want {
		if gotFields[key] != value {
			t.Errorf("フィールド %s = %q, want %q", key, gotFields[key], value)
		}
	}
	if gotFilename != "poster.png" {
		t.Errorf("ファイル名 = %q, want poster.png", gotFilename)
	}
	if len(gotFileData) != 4 {
		t.Errorf("画像データ長 = %d, want 4", len(gotFileData))
	}
}

func TestUpdateEvent_WithoutImage_OmitsFilePart(t *testing.T) {
	appServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("multipartフォームのパースに失敗した: %v", err)
		}
		if _, _, err := r.FormFile("image"); err == nil {
			t.Error("画像未指定の更新にファイルパートを含めるべきではない")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 1}`))
	}))
	defer appServer.Close()

	c := newTestClient(t, appServer.URL, "http://auth.invalid")

	if _, err := c.UpdateEvent(context.Background(), 1, EventInput{Name: "改題"}, nil); err != nil {
		t.Fatalf("UpdateEvent がエラーを返した: %v", err)
	}
}

func TestUpdateEventOrganisers_AlwaysSendsJSON(t *testing.T) {
	var gotContentType string
	var gotBody []byte

	appServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer appServer.Close()

	c := newTestClient(t, appServer.URL, "http://auth.invalid")

	if err := c.UpdateEventOrganisers(context.Background(), 1, []int64{10, 11}); err != nil {
		t.Fatalf("UpdateEventOrganisers がエラーを返した: %v", err)
	}

	// この操作に限りサーバーはmultipartを受け付けないため、常にJSONでなければならない。
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}

	var body struct {
		Organisers []int64 `json:"organisers"`
	}
	if err := json.Unmarshal(gotBody, &body); err != nil {
		t.Fatalf("ボディJSONのパースに失敗した: %v", err)
	}
	if len(body.Organisers) != 2 || body.Organisers[0] != 10 || body.Organisers[1] != 11 {
		t.Errorf("organisers = %v, want [10 11]", body.Organisers)
	}
}

func TestUpdateEventOrganisers_NilBecomesEmptyList(t *testing.T) {
	var gotBody []byte

	appServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer appServer.Close()

	c := newTestClient(t, appServer.URL, "http://auth.invalid")

	if err := c.UpdateEventOrganisers(context.Background(), 1, nil); err != nil {
		t.Fatalf("UpdateEventOrganisers がエラーを返した: %v", err)
	}

	if !strings.Contains(string(gotBody), `"organisers":[]`) {
		t.Errorf("nilは空リストとして送信すべき: %s", gotBody)
	}
}

func TestCheckInParticipant_PostsToCheckInPath(t *testing.T) {
	var gotMethod, gotPath string

	appServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer appServer.Close()

	c := newTestClient(t, appServer.URL, "http://auth.invalid")

	if err := c.CheckInParticipant(context.Background(), 42); err != nil {
		t.Fatalf("CheckInParticipant がエラーを返した: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/booked-participants/42/check-in/" {
		t.Errorf("%s %s, want POST /booked-participants/42/check-in/", gotMethod, gotPath)
	}
}
