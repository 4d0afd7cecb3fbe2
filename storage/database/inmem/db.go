// Package inmemdb provides a thread-safe in-memory implementation of the
// domain repositories, used by API tests.
package inmemdb

import (
	"sync"

	"github.com/trezcool/dhamira/core/course"
	"github.com/trezcool/dhamira/core/group"
	"github.com/trezcool/dhamira/core/mission"
	"github.com/trezcool/dhamira/core/org"
	"github.com/trezcool/dhamira/core/user"
)

type (
	DB struct {
		mutex sync.RWMutex

		users        map[string]*user.User
		orgs         map[string]*org.Organization
		orgMembers   map[string][]string // org ID -> user IDs
		groups       map[string]*group.Group
		memberships  map[string]*group.Membership
		courses      map[string]*course.Course
		courseGroups map[string][]string // course ID -> group IDs
		missions     map[string]*mission.Mission
		progresses   map[string]*mission.Progress
	}
)

func Open() (*DB, error) {
	db := &DB{
		users:        make(map[string]*user.User),
		orgs:         make(map[string]*org.Organization),
		orgMembers:   make(map[string][]string),
		groups:       make(map[string]*group.Group),
		memberships:  make(map[string]*group.Membership),
		courses:      make(map[string]*course.Course),
		courseGroups: make(map[string][]string),
		missions:     make(map[string]*mission.Mission),
		progresses:   make(map[string]*mission.Progress),
	}
	return db, nil
}
