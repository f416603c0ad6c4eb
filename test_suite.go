package blogboot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

const authTokenKey = "authToken"

var placeholderPattern = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

type DBSeeder interface {
	Seed(ctx context.Context, document string, data *godog.Table) error
}

// TestSuite drives the HTTP surface from godog feature files. Requests are
// served in-process by Router. Values saved with "is stored as" can be
// referenced as {{key}} in paths and bodies.
type TestSuite struct {
	T           *testing.T
	Router      *gin.Engine
	Server      *Server
	Resp        *http.Response
	RespBody    []byte
	Storage     map[string]string
	RequestBody []byte
	DbSeeders   map[string]DBSeeder
	// Reset, when set, runs before every scenario to clear persisted state.
	Reset func(ctx context.Context) error
}

type TestLogger struct {
	T *testing.T
}

func NewTestSuite(t *testing.T, router *gin.Engine) *TestSuite {
	return &TestSuite{
		T:         t,
		Router:    router,
		Storage:   make(map[string]string),
		DbSeeders: make(map[string]DBSeeder),
	}
}

func (ts *TestSuite) RegisterDBSeeder(document string, seeder DBSeeder) {
	if ts.DbSeeders == nil {
		ts.DbSeeders = make(map[string]DBSeeder)
	}
	ts.DbSeeders[document] = seeder
}

func (ts *TestSuite) InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.BeforeSuite(func() {
		if ts.Storage == nil {
			ts.Storage = make(map[string]string)
		}
	})
}

func (ts *TestSuite) InitializeScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		ts.Resp = nil
		ts.RespBody = nil
		ts.RequestBody = nil
		ts.Storage = make(map[string]string)
		if ts.Reset != nil {
			return c, ts.Reset(c)
		}
		return c, nil
	})

	ctx.Step(`^document "([^"]*)" has the following items$`, ts.documentHasTheFollowingItems)
	ctx.Step(`^I send a (GET|DELETE) request to "([^"]*)"$`, ts.iSendARequestTo)
	ctx.Step(`^I send a (POST|PUT|PATCH) request to "([^"]*)" with body$`, ts.iSendARequestToWithBody)
	ctx.Step(`^I send an authenticated (GET|DELETE) request to "([^"]*)"$`, ts.iSendAnAuthenticatedRequestTo)
	ctx.Step(`^I send an authenticated (POST|PUT|PATCH) request to "([^"]*)" with body$`, ts.iSendAnAuthenticatedRequestToWithBody)
	ctx.Step(`^I am registered as "([^"]*)" with email "([^"]*)" and password "([^"]*)"$`, ts.iAmRegisteredAs)
	ctx.Step(`^the response status should be (\d+)$`, ts.theResponseStatusShouldBe)
	ctx.Step(`^the response "([^"]*)" field is stored as "([^"]*)"$`, ts.theResponseFieldIsStoredAs)
	ctx.Step(`^the response "([^"]*)" field should be "([^"]*)"$`, ts.theResponseFieldShouldBe)
	ctx.Step(`^the response "([^"]*)" field should have (\d+) items?$`, ts.theResponseFieldShouldHaveItems)
	ctx.Step(`^the response should contain an item with$`, ts.theResponseShouldContainAnItemWith)
}

func (ts *TestSuite) documentHasTheFollowingItems(ctx context.Context, document string, data *godog.Table) error {
	seeder, ok := ts.DbSeeders[document]
	if !ok {
		return fmt.Errorf("no seeder registered for document %s", document)
	}
	return seeder.Seed(ctx, document, data)
}

func (ts *TestSuite) iSendARequestTo(method, path string) error {
	return ts.send(method, path, nil, false)
}

func (ts *TestSuite) iSendARequestToWithBody(method, path string, body *godog.Table) error {
	payload, err := ts.parseDataTableToJSON(body)
	if err != nil {
		return err
	}
	return ts.send(method, path, payload, false)
}

func (ts *TestSuite) iSendAnAuthenticatedRequestTo(method, path string) error {
	return ts.send(method, path, nil, true)
}

func (ts *TestSuite) iSendAnAuthenticatedRequestToWithBody(method, path string, body *godog.Table) error {
	payload, err := ts.parseDataTableToJSON(body)
	if err != nil {
		return err
	}
	return ts.send(method, path, payload, true)
}

// iAmRegisteredAs registers a user through the API and keeps the issued
// access token for authenticated requests.
func (ts *TestSuite) iAmRegisteredAs(name, email, password string) error {
	payload, err := json.Marshal(map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return err
	}
	if err := ts.send(http.MethodPost, "/api/auth/register", payload, false); err != nil {
		return err
	}
	if ts.Resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("registration of %s failed with %d: %s", email, ts.Resp.StatusCode, ts.RespBody)
	}
	return ts.theResponseFieldIsStoredAs("token", authTokenKey)
}

func (ts *TestSuite) send(method, path string, body []byte, authenticated bool) error {
	path = ts.expand(path)
	if body != nil {
		body = []byte(ts.expand(string(body)))
	}
	ts.RequestBody = body

	var reader io.Reader
	if body != nil {
		reader = bytes.NewBuffer(body)
	}
	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		req.Header.Set("Authorization", "Bearer "+ts.Storage[authTokenKey])
	}

	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	ts.Resp = w.Result()
	defer ts.Resp.Body.Close()

	ts.RespBody, err = io.ReadAll(ts.Resp.Body)
	return err
}

// expand replaces {{key}} placeholders with stored values.
func (ts *TestSuite) expand(s string) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(m string) string {
		key := placeholderPattern.FindStringSubmatch(m)[1]
		if v, ok := ts.Storage[key]; ok {
			return v
		}
		return m
	})
}

func (ts *TestSuite) theResponseStatusShouldBe(status int) error {
	if !assert.Equal(ts.T, status, ts.Resp.StatusCode, string(ts.RespBody)) {
		return fmt.Errorf("expected status %d, got %d: %s", status, ts.Resp.StatusCode, ts.RespBody)
	}
	return nil
}

func (ts *TestSuite) theResponseFieldIsStoredAs(field, key string) error {
	val, err := ts.responseField(field)
	if err != nil {
		return err
	}
	ts.Storage[key] = fmt.Sprintf("%v", val)
	return nil
}

func (ts *TestSuite) theResponseFieldShouldBe(field, expected string) error {
	val, err := ts.responseField(field)
	if err != nil {
		return err
	}
	actual := fmt.Sprintf("%v", val)
	expected = ts.expand(expected)
	if actual != expected {
		return fmt.Errorf("field %s: expected %q, got %q", field, expected, actual)
	}
	return nil
}

func (ts *TestSuite) theResponseFieldShouldHaveItems(field string, count int) error {
	val, err := ts.responseField(field)
	if err != nil {
		return err
	}
	items, ok := val.([]interface{})
	if !ok {
		return fmt.Errorf("field %s is not a list", field)
	}
	if len(items) != count {
		return fmt.Errorf("field %s: expected %d items, got %d", field, count, len(items))
	}
	return nil
}

// theResponseShouldContainAnItemWith looks for each data row of the table in
// the response list: the body itself when it is an array, otherwise its
// "data" field. Header cells are dotted paths within an item.
func (ts *TestSuite) theResponseShouldContainAnItemWith(body *godog.Table) error {
	if len(body.Rows) < 2 {
		return fmt.Errorf("table must have at least two rows")
	}
	var decoded interface{}
	if err := json.Unmarshal(ts.RespBody, &decoded); err != nil {
		return err
	}
	items, ok := decoded.([]interface{})
	if !ok {
		data, err := lookupField(decoded, "data")
		if err != nil {
			return fmt.Errorf("response is not a list: %s", ts.RespBody)
		}
		if items, ok = data.([]interface{}); !ok {
			return fmt.Errorf("response data is not a list: %s", ts.RespBody)
		}
	}

	headers := body.Rows[0].Cells
	for _, row := range body.Rows[1:] {
		expected := make(map[string]string, len(row.Cells))
		for j, cell := range row.Cells {
			expected[headers[j].Value] = ts.expand(cell.Value)
		}
		if !containsItem(items, expected) {
			return fmt.Errorf("no item matches %v in %s", expected, ts.RespBody)
		}
	}
	return nil
}

func containsItem(items []interface{}, expected map[string]string) bool {
	for _, item := range items {
		matched := true
		for path, want := range expected {
			val, err := lookupField(item, path)
			if err != nil || fmt.Sprintf("%v", val) != want {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

// responseField resolves a dotted path such as "data.comments.0.content"
// against the decoded response body.
func (ts *TestSuite) responseField(path string) (interface{}, error) {
	var data interface{}
	if err := json.Unmarshal(ts.RespBody, &data); err != nil {
		return nil, err
	}
	return lookupField(data, path)
}

func lookupField(data interface{}, path string) (interface{}, error) {
	current := data
	for _, part := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]interface{}:
			val, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("field %s not found in response", path)
			}
			current = val
		case []interface{}:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("field %s not found in response", path)
			}
			current = node[idx]
		default:
			return nil, fmt.Errorf("field %s not found in response", path)
		}
	}
	return current, nil
}

// parseDataTableToJSON turns a two-row table into a JSON object. "true" and
// "false" become booleans; everything else stays a string.
func (ts *TestSuite) parseDataTableToJSON(body *godog.Table) ([]byte, error) {
	if len(body.Rows) < 2 {
		return nil, fmt.Errorf("table must have at least two rows")
	}
	headers := body.Rows[0].Cells
	data := make(map[string]interface{})
	for j, cell := range body.Rows[1].Cells {
		switch cell.Value {
		case "true":
			data[headers[j].Value] = true
		case "false":
			data[headers[j].Value] = false
		default:
			data[headers[j].Value] = cell.Value
		}
	}
	return json.Marshal(data)
}

// GenericDBSeeder populates documents from godog tables by matching column
// names to struct fields or their json tags.
type GenericDBSeeder struct {
	Constructors map[string]func() interface{}
	DB           *mongo.Database
}

func NewGenericDBSeeder(db *mongo.Database) *GenericDBSeeder {
	return &GenericDBSeeder{
		Constructors: make(map[string]func() interface{}),
		DB:           db,
	}
}

func (gds *GenericDBSeeder) Register(name string, constructor func() interface{}) {
	gds.Constructors[name] = constructor
}

func (gds *GenericDBSeeder) Seed(ctx context.Context, document string, data *godog.Table) error {
	constructor, ok := gds.Constructors[document]
	if !ok {
		return fmt.Errorf("no constructor registered for document type: %s", document)
	}

	headers := data.Rows[0].Cells
	for i := 1; i < len(data.Rows); i++ {
		docInstance := constructor()
		val := reflect.ValueOf(docInstance).Elem()

		for j, cell := range data.Rows[i].Cells {
			fieldName := headers[j].Value
			field := fieldByNameOrTag(val, fieldName)
			if !field.IsValid() || !field.CanSet() {
				return fmt.Errorf("could not set field %s for document %s", fieldName, document)
			}
			if err := setField(field, cell.Value); err != nil {
				return fmt.Errorf("field %s: %w", fieldName, err)
			}
		}

		if _, err := gds.DB.Collection(document).InsertOne(ctx, docInstance); err != nil {
			return err
		}
	}
	return nil
}

func fieldByNameOrTag(val reflect.Value, name string) reflect.Value {
	if field := val.FieldByName(toPascalCase(name)); field.IsValid() {
		return field
	}
	typ := val.Type()
	for k := 0; k < typ.NumField(); k++ {
		tag := strings.Split(typ.Field(k).Tag.Get("json"), ",")[0]
		if tag == name {
			return val.Field(k)
		}
	}
	return reflect.Value{}
}

func setField(field reflect.Value, raw string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if raw == "" {
			field.SetInt(0)
			return nil
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Bool:
		if raw == "" {
			field.SetBool(false)
			return nil
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", field.Type())
		}
		parts := []string{}
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		field.Set(reflect.ValueOf(parts).Convert(field.Type()))
	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}
	return nil
}

func toPascalCase(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (tl *TestLogger) Write(p []byte) (n int, err error) {
	if tl.T != nil {
		tl.T.Logf("%s", p)
	}
	return len(p), nil
}

// RunFeatures runs the feature files under paths and fails t when any
// scenario fails.
func RunFeatures(t *testing.T, suite *TestSuite, paths ...string) {
	suite.T = t
	if len(paths) == 0 {
		paths = []string{"features"}
	}
	opts := godog.Options{
		Format:    "pretty",
		Output:    colors.Colored(&TestLogger{T: t}),
		Paths:     paths,
		Strict:    true,
		Randomize: 0,
	}

	status := godog.TestSuite{
		Name:                 "blogboot",
		TestSuiteInitializer: suite.InitializeTestSuite,
		ScenarioInitializer:  suite.InitializeScenario,
		Options:              &opts,
	}.Run()
	if status != 0 {
		t.Fatalf("feature run failed with status %d", status)
	}
}
