package queries

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	. "github.com/smartystreets/goconvey/convey"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dawita19/earnmax-sub001/model"
)

func setupRepo(t *testing.T) (*Repo, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("can't create sqlmock: %s", err)
	}

	dialector := postgres.New(postgres.Config{
		DSN:                  "postgres-mock",
		DriverName:           "postgres",
		Conn:                 db,
		PreferSimpleProtocol: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("can't open gorm connection: %s", err)
	}
	return &Repo{Conn: gormDB, ConnReader: gormDB}, mock
}

func TestGetUser(t *testing.T) {
	repo, mock := setupRepo(t)

	Convey("A stored user is loaded with its balance", t, func() {
		rows := sqlmock.NewRows([]string{"id", "email", "invite_code", "status", "vip_level", "balance"}).
			AddRow(1, "user1@earnmax.io", "AbCdEfGh", model.UserStatusActive, 2, "150.25")
		mock.
			ExpectQuery("SELECT * FROM \"users\" WHERE id = $1 ORDER BY \"users\".\"id\" LIMIT 1").
			WithArgs(1).
			WillReturnRows(rows)

		user, err := repo.GetUser(1)
		So(err, ShouldBeNil)
		So(user.Email, ShouldEqual, "user1@earnmax.io")
		So(user.VipLevel, ShouldEqual, 2)
		So(user.GetBalance().String(), ShouldEqual, "150.25")
	})

	Convey("A missing user maps to the domain error", t, func() {
		mock.
			ExpectQuery("SELECT * FROM \"users\" WHERE id = $1 ORDER BY \"users\".\"id\" LIMIT 1").
			WithArgs(9).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetUser(9)
		So(err, ShouldEqual, model.ErrUserNotFound)
	})
}

func TestActiveUsers(t *testing.T) {
	repo, mock := setupRepo(t)

	Convey("Only active users are preloaded", t, func() {
		rows := sqlmock.NewRows([]string{"id", "email", "status", "balance"}).
			AddRow(1, "user1@earnmax.io", model.UserStatusActive, "10.00").
			AddRow(2, "user2@earnmax.io", model.UserStatusActive, "20.00")
		mock.
			ExpectQuery("SELECT * FROM \"users\" WHERE status = $1").
			WithArgs(model.UserStatusActive).
			WillReturnRows(rows)

		users, err := repo.ActiveUsers()
		So(err, ShouldBeNil)
		So(users, ShouldHaveLength, 2)
		So(users[1].GetBalance().String(), ShouldEqual, "20.00")
	})
}

func TestGetRequest(t *testing.T) {
	repo, mock := setupRepo(t)

	Convey("A stored request is loaded by id", t, func() {
		rows := sqlmock.NewRows([]string{"id", "type", "requester_id", "amount", "status", "assigned_admin_id"}).
			AddRow("req-1", model.RequestType_Purchase, 5, "1200.00", model.RequestStatus_UnderReview, 7)
		mock.
			ExpectQuery("SELECT * FROM \"requests\" WHERE id = $1 ORDER BY \"requests\".\"id\" LIMIT 1").
			WithArgs("req-1").
			WillReturnRows(rows)

		request, err := repo.GetRequest("req-1")
		So(err, ShouldBeNil)
		So(request.Type, ShouldEqual, model.RequestType_Purchase)
		So(request.GetAmount().String(), ShouldEqual, "1200.00")
		So(*request.AssignedAdminID, ShouldEqual, 7)
	})

	Convey("A missing request maps to the domain error", t, func() {
		mock.
			ExpectQuery("SELECT * FROM \"requests\" WHERE id = $1 ORDER BY \"requests\".\"id\" LIMIT 1").
			WithArgs("req-9").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetRequest("req-9")
		So(err, ShouldEqual, model.ErrRequestNotFound)
	})
}

func TestAdminQueue(t *testing.T) {
	repo, mock := setupRepo(t)

	Convey("The queue lists the admin's open reviews oldest first", t, func() {
		rows := sqlmock.NewRows([]string{"id", "type", "requester_id", "status", "assigned_admin_id"}).
			AddRow("req-1", model.RequestType_Withdrawal, 5, model.RequestStatus_UnderReview, 7).
			AddRow("req-2", model.RequestType_Purchase, 6, model.RequestStatus_UnderReview, 7)
		mock.
			ExpectQuery("SELECT * FROM \"requests\" WHERE assigned_admin_id = $1 AND status = $2 ORDER BY created_at asc").
			WithArgs(7, model.RequestStatus_UnderReview).
			WillReturnRows(rows)

		requests, err := repo.AdminQueue(7)
		So(err, ShouldBeNil)
		So(requests, ShouldHaveLength, 2)
		So(requests[0].ID, ShouldEqual, "req-1")
	})
}

func TestAdmins(t *testing.T) {
	repo, mock := setupRepo(t)

	Convey("The roster comes back ordered by id", t, func() {
		rows := sqlmock.NewRows([]string{"id", "email", "active", "level", "pending_count"}).
			AddRow(1, "admin1@earnmax.io", true, model.AdminLevel_Low, 0).
			AddRow(2, "admin2@earnmax.io", false, model.AdminLevel_High, 3)
		mock.
			ExpectQuery("SELECT * FROM \"admins\" ORDER BY id asc").
			WillReturnRows(rows)

		admins, err := repo.Admins()
		So(err, ShouldBeNil)
		So(admins, ShouldHaveLength, 2)
		So(admins[0].Active, ShouldBeTrue)
		So(admins[1].PendingCount, ShouldEqual, 3)
	})
}

func TestAssignRequest(t *testing.T) {
	Convey("Assigning moves the request under review and bumps the counter", t, func() {
		repo, mock := setupRepo(t)

		mock.ExpectBegin()
		mock.
			ExpectExec("UPDATE \"requests\" SET \"assigned_admin_id\"=$1,\"status\"=$2,\"updated_at\"=$3 WHERE id = $4 AND status = $5").
			WithArgs(7, model.RequestStatus_UnderReview, sqlmock.AnyArg(), "req-1", model.RequestStatus_Pending).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.
			ExpectExec("UPDATE \"admins\" SET \"pending_count\"=pending_count + 1,\"updated_at\"=$1 WHERE id = $2").
			WithArgs(sqlmock.AnyArg(), 7).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		So(repo.AssignRequest("req-1", 7), ShouldBeNil)
		So(mock.ExpectationsWereMet(), ShouldBeNil)
	})

	Convey("Losing the status guard rolls everything back", t, func() {
		repo, mock := setupRepo(t)

		mock.ExpectBegin()
		mock.
			ExpectExec("UPDATE \"requests\" SET \"assigned_admin_id\"=$1,\"status\"=$2,\"updated_at\"=$3 WHERE id = $4 AND status = $5").
			WithArgs(7, model.RequestStatus_UnderReview, sqlmock.AnyArg(), "req-1", model.RequestStatus_Pending).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		So(repo.AssignRequest("req-1", 7), ShouldEqual, model.ErrRequestNotPending)
		So(mock.ExpectationsWereMet(), ShouldBeNil)
	})
}
