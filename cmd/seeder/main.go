// Seeder populates a development database with users, a published
// curriculum scheme, student profiles, and mentor rosters.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
	"github.com/Sahanabu/MentorAI-sub000/internal/usn"
)

const (
	// Staff account IDs
	AdminID  = "admin-001"
	HODID    = "hod-cs-001"
	Mentor1  = "mentor-001"
	Mentor2  = "mentor-002"
	Teacher1 = "teacher-001"

	// Common dev credential
	CommonPassword = "password"

	SchemeYear = 2022
)

// SubjectSeed describes one curriculum subject to insert.
type SubjectSeed struct {
	Code        string
	Name        string
	Semester    int
	Credits     int
	SubjectType string
}

// StudentSeed describes one student account plus profile.
type StudentSeed struct {
	USN   string
	Name  string
	Email string
}

func main() {
	log.Println("INFO: Starting seeder...")

	if err := shared.LoadEnv(".env"); err != nil {
		log.Printf("INFO: no .env file, using environment: %v", err)
	}
	config, err := shared.LoadServiceConfig("seeder")
	if err != nil {
		log.Fatalf("FATAL: configuration error: %v", err)
	}

	client, db, err := shared.ConnectMongoDB(&config.MongoDB)
	if err != nil {
		log.Fatalf("FATAL: mongodb connection failed: %v", err)
	}
	defer func() {
		if err := shared.DisconnectMongoDB(client); err != nil {
			log.Printf("WARN: disconnect failed: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := shared.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("FATAL: index creation failed: %v", err)
	}

	parser := usn.NewParser(usn.DefaultRules(config.Academic))

	if err := seedStaff(ctx, db, config.Security.BCryptCost); err != nil {
		log.Fatalf("FATAL: seeding staff failed: %v", err)
	}
	if err := seedSubjects(ctx, db); err != nil {
		log.Fatalf("FATAL: seeding subjects failed: %v", err)
	}
	if err := seedStudents(ctx, db, parser, config.Security.BCryptCost); err != nil {
		log.Fatalf("FATAL: seeding students failed: %v", err)
	}
	if err := seedMentors(ctx, db, config.Academic.MaxStudentsPerMentor); err != nil {
		log.Fatalf("FATAL: seeding mentors failed: %v", err)
	}

	log.Println("INFO: Seeding complete.")
}

// seedStaff upserts the fixed admin, HOD, mentor, and teacher accounts.
func seedStaff(ctx context.Context, db *mongo.Database, bcryptCost int) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(CommonPassword), bcryptCost)
	if err != nil {
		return err
	}

	users := []shared.User{
		{ID: AdminID, Email: "admin@college.edu", Role: shared.RoleAdmin, Name: "System Admin"},
		{ID: HODID, Email: "hod.cs@college.edu", Role: shared.RoleHOD, Name: "Dr. Meera Nair", Department: "CS"},
		{ID: Mentor1, Email: "mentor1@college.edu", Role: shared.RoleTeacher, Name: "Prof. Arjun Rao", Department: "CS"},
		{ID: Mentor2, Email: "mentor2@college.edu", Role: shared.RoleTeacher, Name: "Prof. Divya Shetty", Department: "CS"},
		{ID: Teacher1, Email: "teacher1@college.edu", Role: shared.RoleTeacher, Name: "Prof. Kiran Kumar", Department: "CS"},
	}

	col := db.Collection(shared.ColUsers)
	for _, u := range users {
		u.PasswordHash = string(hash)
		u.IsActive = true
		u.CreatedAt = time.Now()

		_, err := col.UpdateOne(ctx,
			bson.M{"_id": u.ID},
			bson.M{"$set": u},
			options.Update().SetUpsert(true))
		if err != nil {
			return err
		}
	}
	log.Printf("INFO: seeded %d staff accounts", len(users))
	return nil
}

// seedSubjects upserts the published semester 3 and 4 scheme.
func seedSubjects(ctx context.Context, db *mongo.Database) error {
	subjects := []SubjectSeed{
		{Code: "CS301", Name: "Data Structures", Semester: 3, Credits: 4, SubjectType: shared.SubjectTheory},
		{Code: "CS302", Name: "Discrete Mathematics", Semester: 3, Credits: 4, SubjectType: shared.SubjectTheory},
		{Code: "CS303", Name: "Digital Logic Design", Semester: 3, Credits: 3, SubjectType: shared.SubjectTheory},
		{Code: "CS304", Name: "Object Oriented Programming", Semester: 3, Credits: 3, SubjectType: shared.SubjectCombined},
		{Code: "CS305L", Name: "Data Structures Lab", Semester: 3, Credits: 1, SubjectType: shared.SubjectLab},
		{Code: "CS401", Name: "Design and Analysis of Algorithms", Semester: 4, Credits: 4, SubjectType: shared.SubjectTheory},
		{Code: "CS402", Name: "Operating Systems", Semester: 4, Credits: 4, SubjectType: shared.SubjectTheory},
		{Code: "CS403", Name: "Computer Organization", Semester: 4, Credits: 3, SubjectType: shared.SubjectTheory},
		{Code: "CS404", Name: "Database Management Systems", Semester: 4, Credits: 3, SubjectType: shared.SubjectCombined},
		{Code: "CS405L", Name: "Algorithms Lab", Semester: 4, Credits: 1, SubjectType: shared.SubjectLab},
	}

	col := db.Collection(shared.ColSubjects)
	for _, s := range subjects {
		record := shared.SubjectRecord{
			ID:            fmt.Sprintf("%s-%d", s.Code, SchemeYear),
			Code:          s.Code,
			Name:          s.Name,
			Semester:      s.Semester,
			Credits:       s.Credits,
			SubjectType:   s.SubjectType,
			PassThreshold: 40,
			SchemeYear:    SchemeYear,
			Published:     true,
			CreatedAt:     time.Now(),
		}
		_, err := col.UpdateOne(ctx,
			bson.M{"_id": record.ID},
			bson.M{"$set": record},
			options.Update().SetUpsert(true))
		if err != nil {
			return err
		}
	}
	log.Printf("INFO: seeded %d subjects", len(subjects))
	return nil
}

// seedStudents parses each USN, then upserts the account and profile.
func seedStudents(ctx context.Context, db *mongo.Database, parser *usn.Parser, bcryptCost int) error {
	students := []StudentSeed{
		{USN: "1CR22CS001", Name: "Ananya Sharma", Email: "ananya@college.edu"},
		{USN: "1CR22CS002", Name: "Rahul Verma", Email: "rahul@college.edu"},
		{USN: "1CR22CS003", Name: "Sneha Iyer", Email: "sneha@college.edu"},
		{USN: "1CR22CS004", Name: "Vikram Singh", Email: "vikram@college.edu"},
		{USN: "1CR22CS401", Name: "Pooja Hegde", Email: "pooja@college.edu"},
		{USN: "1CR22CS402", Name: "Sandeep Gowda", Email: "sandeep@college.edu"},
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(CommonPassword), bcryptCost)
	if err != nil {
		return err
	}

	usersCol := db.Collection(shared.ColUsers)
	profilesCol := db.Collection(shared.ColStudentProfiles)

	for _, s := range students {
		parsed, err := parser.Parse(s.USN)
		if err != nil {
			return fmt.Errorf("seed student %s: %w", s.USN, err)
		}

		user := shared.User{
			ID:           parsed.USN,
			Email:        s.Email,
			PasswordHash: string(hash),
			Role:         shared.RoleStudent,
			Name:         s.Name,
			Department:   parsed.Department,
			StudentID:    parsed.USN,
			IsActive:     true,
			CreatedAt:    time.Now(),
		}
		if _, err := usersCol.UpdateOne(ctx,
			bson.M{"_id": user.ID},
			bson.M{"$set": user},
			options.Update().SetUpsert(true)); err != nil {
			return err
		}

		profile := shared.StudentAcademicProfile{
			ID:              parsed.USN,
			Name:            s.Name,
			AdmissionYear:   parsed.AdmissionYear,
			Department:      parsed.Department,
			Serial:          parsed.Serial,
			EntryType:       parsed.EntryType,
			CurrentSemester: parser.CurrentSemester(parsed.AdmissionYear, parsed.EntryType),
			IsActive:        true,
			CreatedAt:       time.Now(),
			UpdatedAt:       time.Now(),
		}
		if _, err := profilesCol.UpdateOne(ctx,
			bson.M{"_id": profile.ID},
			bson.M{"$setOnInsert": profile},
			options.Update().SetUpsert(true)); err != nil {
			return err
		}
	}
	log.Printf("INFO: seeded %d students", len(students))
	return nil
}

// seedMentors creates empty rosters so distribution has somewhere to go.
func seedMentors(ctx context.Context, db *mongo.Database, maxStudents int) error {
	col := db.Collection(shared.ColMentorAssignments)
	for _, mentorID := range []string{Mentor1, Mentor2} {
		assignment := shared.MentorAssignment{
			ID:               mentorID,
			Department:       "CS",
			AssignedStudents: []string{},
			RegularStudents:  []string{},
			LateralStudents:  []string{},
			MaxStudentCount:  maxStudents,
			UpdatedAt:        time.Now(),
		}
		if _, err := col.UpdateOne(ctx,
			bson.M{"_id": mentorID},
			bson.M{"$setOnInsert": assignment},
			options.Update().SetUpsert(true)); err != nil {
			return err
		}
	}
	log.Println("INFO: seeded mentor rosters")
	return nil
}
