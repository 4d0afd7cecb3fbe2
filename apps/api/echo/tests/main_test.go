package tests

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	. "github.com/trezcool/dhamira/apps/api/echo"
	"github.com/trezcool/dhamira/core"
	"github.com/trezcool/dhamira/core/course"
	"github.com/trezcool/dhamira/core/group"
	"github.com/trezcool/dhamira/core/mission"
	"github.com/trezcool/dhamira/core/org"
	"github.com/trezcool/dhamira/core/user"
	cachesvc "github.com/trezcool/dhamira/services/cache"
	emailsvc "github.com/trezcool/dhamira/services/email"
	logsvc "github.com/trezcool/dhamira/services/logger"
	inmemdb "github.com/trezcool/dhamira/storage/database/inmem"
)

var (
	conf *core.Config
	app  *Server

	usrRepo     user.Repository
	orgRepo     org.Repository
	groupRepo   group.Repository
	courseRepo  course.Repository
	missionRepo mission.Repository

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func TestMain(m *testing.M) {
	conf = core.NewConfig()
	conf.Debug = false
	conf.TestMode = true

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags), conf)
	logger.Enable(false)

	// set up DB & repos
	db, err := inmemdb.Open()
	if err != nil {
		log.Fatalf("inmemdb.Open(): %v", err)
	}
	usrRepo = inmemdb.NewUserRepository(db)
	orgRepo = inmemdb.NewOrgRepository(db)
	groupRepo = inmemdb.NewGroupRepository(db)
	courseRepo = inmemdb.NewCourseRepository(db)
	missionRepo = inmemdb.NewMissionRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	cache := cachesvc.NewMemoryCache()
	usrSvc := user.NewServiceMock(usrRepo, mailSvc, cache, conf)

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// set up server
	app = NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		UserSvc:    usrSvc,
		OrgSvc:     org.NewService(orgRepo),
		GroupSvc:   group.NewService(groupRepo),
		CourseSvc:  course.NewService(courseRepo),
		MissionSvc: mission.NewService(missionRepo),
		Validate:   validate,
		Translator: translator,
	})

	os.Exit(m.Run())
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(conf, usr)
	token, err := GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return false, nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
