package provider

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync"
	"testing"

	dsschema "github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	rschema "github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/tfsdk"
	"github.com/hashicorp/terraform-plugin-go/tftypes"
	"github.com/stretchr/testify/require"

	"github.com/isometry/terraform-provider-crowd/internal/crowd"
)

// fakeDirectory is an in-memory Crowd usermanagement API covering the
// endpoints used by the provider.
type fakeDirectory struct {
	mu      sync.Mutex
	users   map[string]*crowd.User
	groups  map[string]*crowd.Group
	members map[string]map[string]bool // group -> direct user members
	calls   []string                   // "METHOD path" in arrival order
	server  *httptest.Server
}

func newFakeDirectory(t testing.TB) *fakeDirectory {
	t.Helper()

	f := &fakeDirectory{
		users:   make(map[string]*crowd.User),
		groups:  make(map[string]*crowd.Group),
		members: make(map[string]map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /user", f.getUser)
	mux.HandleFunc("GET /group", f.getGroup)
	mux.HandleFunc("POST /group", f.createGroup)
	mux.HandleFunc("PUT /group", f.updateGroup)
	mux.HandleFunc("DELETE /group", f.deleteGroup)
	mux.HandleFunc("GET /group/user/direct", f.groupUsers)
	mux.HandleFunc("GET /group/user/nested", f.groupUsers)
	mux.HandleFunc("GET /group/parent-group/direct", f.emptyGroups)
	mux.HandleFunc("GET /group/child-group/direct", f.emptyGroups)
	mux.HandleFunc("GET /user/group/direct", f.userGroups)
	mux.HandleFunc("GET /user/group/nested", f.userGroups)
	mux.HandleFunc("POST /user/group/direct", f.addMember)
	mux.HandleFunc("DELETE /user/group/direct", f.removeMember)
	mux.HandleFunc("GET /search", f.search)

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls = append(f.calls, r.Method+" "+r.URL.Path)
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.server.Close)

	return f
}

func (f *fakeDirectory) providerData(t testing.TB) *crowd.ProviderData {
	t.Helper()

	client, err := crowd.NewClient(&crowd.Config{
		BaseURL:     f.server.URL,
		AppName:     "terraform",
		AppPassword: "secret",
	})
	require.NoError(t, err)

	return crowd.NewProviderData(client, 100)
}

func (f *fakeDirectory) addUser(name string, groups ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.users[name] = &crowd.User{Name: name, Key: "key-" + name, Email: name + "@example.com", Active: true}
	for _, group := range groups {
		if f.members[group] == nil {
			f.members[group] = make(map[string]bool)
		}
		f.members[group][name] = true
	}
}

func (f *fakeDirectory) addGroup(name, description string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.groups[name] = &crowd.Group{Name: name, Type: crowd.GroupTypeGroup, Description: description, Active: true}
	if f.members[name] == nil {
		f.members[name] = make(map[string]bool)
	}
}

func (f *fakeDirectory) memberNames(group string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.memberNamesLocked(group)
}

func (f *fakeDirectory) memberNamesLocked(group string) []string {
	names := make([]string, 0, len(f.members[group]))
	for name := range f.members[group] {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (f *fakeDirectory) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeDirectory) getUser(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[r.URL.Query().Get("username")]
	if !ok {
		writeReason(w, http.StatusNotFound, "USER_NOT_FOUND")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (f *fakeDirectory) getGroup(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	group, ok := f.groups[r.URL.Query().Get("groupname")]
	if !ok {
		writeReason(w, http.StatusNotFound, "GROUP_NOT_FOUND")
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (f *fakeDirectory) createGroup(w http.ResponseWriter, r *http.Request) {
	var body crowd.Group
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeReason(w, http.StatusBadRequest, "INVALID_GROUP")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.groups[body.Name]; exists {
		writeReason(w, http.StatusBadRequest, "INVALID_GROUP")
		return
	}
	f.groups[body.Name] = &body
	f.members[body.Name] = make(map[string]bool)
	w.WriteHeader(http.StatusCreated)
}

func (f *fakeDirectory) updateGroup(w http.ResponseWriter, r *http.Request) {
	var body crowd.Group
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeReason(w, http.StatusBadRequest, "INVALID_GROUP")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	name := r.URL.Query().Get("groupname")
	if _, ok := f.groups[name]; !ok || body.Name != name {
		writeReason(w, http.StatusNotFound, "GROUP_NOT_FOUND")
		return
	}
	f.groups[name] = &body
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeDirectory) deleteGroup(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := r.URL.Query().Get("groupname")
	if _, ok := f.groups[name]; !ok {
		writeReason(w, http.StatusNotFound, "GROUP_NOT_FOUND")
		return
	}
	delete(f.groups, name)
	delete(f.members, name)
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeDirectory) groupUsers(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := r.URL.Query().Get("groupname")
	if _, ok := f.groups[name]; !ok {
		writeReason(w, http.StatusNotFound, "GROUP_NOT_FOUND")
		return
	}
	writeNames(w, r, "users", f.memberNamesLocked(name))
}

func (f *fakeDirectory) emptyGroups(w http.ResponseWriter, r *http.Request) {
	writeNames(w, r, "groups", nil)
}

func (f *fakeDirectory) userGroups(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	username := r.URL.Query().Get("username")
	if _, ok := f.users[username]; !ok {
		writeReason(w, http.StatusNotFound, "USER_NOT_FOUND")
		return
	}

	var groups []string
	for group, members := range f.members {
		if members[username] {
			groups = append(groups, group)
		}
	}
	slices.Sort(groups)
	writeNames(w, r, "groups", groups)
}

func (f *fakeDirectory) addMember(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeReason(w, http.StatusBadRequest, "INVALID_GROUP")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	username := r.URL.Query().Get("username")
	if _, ok := f.users[username]; !ok {
		writeReason(w, http.StatusBadRequest, "USER_NOT_FOUND")
		return
	}
	if _, ok := f.groups[body.Name]; !ok {
		writeReason(w, http.StatusNotFound, "GROUP_NOT_FOUND")
		return
	}
	f.members[body.Name][username] = true
	w.WriteHeader(http.StatusCreated)
}

func (f *fakeDirectory) removeMember(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	query := r.URL.Query()
	group, username := query.Get("groupname"), query.Get("username")
	if !f.members[group][username] {
		writeReason(w, http.StatusNotFound, "MEMBERSHIP_NOT_FOUND")
		return
	}
	delete(f.members[group], username)
	w.WriteHeader(http.StatusNoContent)
}

// search ignores any restriction and returns every entity of the requested type.
func (f *fakeDirectory) search(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var (
		collection string
		names      []string
	)
	switch r.URL.Query().Get("entity-type") {
	case "user":
		collection = "users"
		for name := range f.users {
			names = append(names, name)
		}
	case "group":
		collection = "groups"
		for name := range f.groups {
			names = append(names, name)
		}
	default:
		writeReason(w, http.StatusBadRequest, "ILLEGAL_ARGUMENT")
		return
	}
	slices.Sort(names)
	writeNames(w, r, collection, names)
}

// writeNames writes the requested window of names as a Crowd entity list.
func writeNames(w http.ResponseWriter, r *http.Request, collection string, names []string) {
	start, _ := strconv.Atoi(r.URL.Query().Get("start-index"))
	limit, err := strconv.Atoi(r.URL.Query().Get("max-results"))
	if err != nil || limit < 1 {
		limit = len(names)
	}

	start = min(start, len(names))
	end := min(start+limit, len(names))

	entities := make([]map[string]string, 0, end-start)
	for _, name := range names[start:end] {
		entities = append(entities, map[string]string{"name": name})
	}
	writeJSON(w, http.StatusOK, map[string]any{collection: entities})
}

func writeReason(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, map[string]string{"reason": reason, "message": reason})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newResourceState(t *testing.T, s rschema.Schema, model any) tfsdk.State {
	t.Helper()

	state := tfsdk.State{Schema: s, Raw: tftypes.NewValue(s.Type().TerraformType(t.Context()), nil)}
	if model != nil {
		diags := state.Set(t.Context(), model)
		require.False(t, diags.HasError(), "%v", diags)
	}
	return state
}

func newResourcePlan(t *testing.T, s rschema.Schema, model any) tfsdk.Plan {
	t.Helper()

	state := newResourceState(t, s, model)
	return tfsdk.Plan{Schema: s, Raw: state.Raw}
}

func newDataSourceState(t *testing.T, s dsschema.Schema) tfsdk.State {
	t.Helper()
	return tfsdk.State{Schema: s, Raw: tftypes.NewValue(s.Type().TerraformType(t.Context()), nil)}
}

func newDataSourceConfig(t *testing.T, s dsschema.Schema, model any) tfsdk.Config {
	t.Helper()

	state := newDataSourceState(t, s)
	diags := state.Set(t.Context(), model)
	require.False(t, diags.HasError(), "%v", diags)
	return tfsdk.Config{Schema: s, Raw: state.Raw}
}
