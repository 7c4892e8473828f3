// Package mongodb is an alternative record store for deployments that prefer
// a database over a flat file. It implements the same api.RecordDatabase
// contract as the jsonfile store and is selected via the storage config.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ukane-philemon/srms/api"
	"github.com/ukane-philemon/srms/internal/db"
	"github.com/ukane-philemon/srms/internal/record"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	// Collections
	studentCollection = "students"

	// Keys
	idKey        = "_id"
	rollNoKey    = "roll_no"
	marksKey     = "marks"
	gradeKey     = "grade"
	createdAtKey = "createdAt"

	// Actions
	actionSet = "$set"
)

// Check that *MongoDB implements api.RecordDatabase.
var _ api.RecordDatabase = (*MongoDB)(nil)

// dbStudentRecord is the stored shape of a student record. CreatedAt
// preserves insertion order across reads.
type dbStudentRecord struct {
	ID        primitive.ObjectID `bson:"_id"`
	Name      string             `bson:"name"`
	RollNo    string             `bson:"roll_no"`
	Marks     float64            `bson:"marks"`
	Grade     string             `bson:"grade"`
	CreatedAt int64              `bson:"createdAt"`
}

func (dsr *dbStudentRecord) StudentRecord() *record.StudentRecord {
	return &record.StudentRecord{
		Name:   dsr.Name,
		RollNo: dsr.RollNo,
		Marks:  dsr.Marks,
		Grade:  dsr.Grade,
	}
}

// MongoDB implements api.RecordDatabase.
type MongoDB struct {
	ctx               context.Context
	db                *mongo.Database
	studentCollection *mongo.Collection
}

// New connects to a mongo database and returns a new instance of *MongoDB.
func New(ctx context.Context, dbName string, connectionURL string) (*MongoDB, error) {
	if connectionURL == "" {
		return nil, errors.New("missing mongodb database connection URL")
	}

	if dbName == "" {
		return nil, errors.New("database name is required")
	}

	// Set server API version for the client.
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(connectionURL).SetServerAPIOptions(serverAPI)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}

	err = client.Ping(ctx, readpref.Primary())
	if err != nil {
		return nil, fmt.Errorf("client.Ping error: %w", err)
	}

	log.Println("Database has been connected and pinged successfully...")

	database := client.Database(dbName)

	// Create a unique index on the student collection so roll numbers stay
	// unique even if two writers race.
	studentCollection := database.Collection(studentCollection)
	_, err = studentCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{
			Key:   rollNoKey,
			Value: 1,
		}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("studentCollection.Indexes().CreateOne error: %w", err)
	}

	return &MongoDB{
		ctx:               ctx,
		db:                database,
		studentCollection: studentCollection,
	}, nil
}

// Records returns the full collection in insertion order. Records missing a
// grade are backfilled from their marks and the correction is persisted
// before returning.
// Implements api.RecordDatabase.
func (mdb *MongoDB) Records() ([]*record.StudentRecord, error) {
	cur, err := mdb.studentCollection.Find(mdb.ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: createdAtKey, Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("studentCollection.Find error: %w", err)
	}

	var dbRecords []*dbStudentRecord
	err = cur.All(mdb.ctx, &dbRecords)
	if err != nil {
		return nil, fmt.Errorf("failed to decode student records: %w", err)
	}

	records := make([]*record.StudentRecord, 0, len(dbRecords))
	for _, dbRec := range dbRecords {
		if dbRec.Grade == "" {
			dbRec.Grade = record.GradeFor(dbRec.Marks)
			update := bson.M{actionSet: bson.M{gradeKey: dbRec.Grade}}
			_, err = mdb.studentCollection.UpdateOne(mdb.ctx, bson.M{idKey: dbRec.ID}, update)
			if err != nil {
				return nil, fmt.Errorf("studentCollection.UpdateOne error: %w", err)
			}
		}

		records = append(records, dbRec.StudentRecord())
	}

	return records, nil
}

// AddRecord appends a new student record with its grade derived from marks.
// Returns db.ErrorDuplicateRecord if the roll number is already taken.
// Implements api.RecordDatabase.
func (mdb *MongoDB) AddRecord(name, rollNo string, marks float64) (*record.StudentRecord, error) {
	rec, err := record.New(name, rollNo, marks)
	if err != nil {
		return nil, err
	}

	_, err = mdb.studentCollection.InsertOne(mdb.ctx, &dbStudentRecord{
		ID:        primitive.NewObjectID(),
		Name:      rec.Name,
		RollNo:    rec.RollNo,
		Marks:     rec.Marks,
		Grade:     rec.Grade,
		CreatedAt: time.Now().UnixNano(),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: a student with roll number %s already exists", db.ErrorDuplicateRecord, rollNo)
		}
		return nil, fmt.Errorf("studentCollection.InsertOne error: %w", err)
	}

	return rec, nil
}

// UpdateMarks sets the marks of the record matching rollNo and rederives its
// grade. Returns db.ErrorNotFound if no record matches.
// Implements api.RecordDatabase.
func (mdb *MongoDB) UpdateMarks(rollNo string, marks float64) (*record.StudentRecord, error) {
	if !record.ValidMarks(marks) {
		return nil, fmt.Errorf("%w: marks %v is not between %d and %d", db.ErrorInvalidRequest, marks, record.MinMarks, record.MaxMarks)
	}

	update := bson.M{actionSet: bson.M{marksKey: marks, gradeKey: record.GradeFor(marks)}}
	res := mdb.studentCollection.FindOneAndUpdate(mdb.ctx, bson.M{rollNoKey: rollNo}, update, options.FindOneAndUpdate().SetReturnDocument(options.After))

	var updated *dbStudentRecord
	err := res.Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: no student with roll number %s", db.ErrorNotFound, rollNo)
		}
		return nil, fmt.Errorf("studentCollection.FindOneAndUpdate error: %w", err)
	}

	return updated.StudentRecord(), nil
}

// DeleteRecord removes every record matching rollNo. Returns
// db.ErrorNotFound if none matched.
// Implements api.RecordDatabase.
func (mdb *MongoDB) DeleteRecord(rollNo string) error {
	res, err := mdb.studentCollection.DeleteMany(mdb.ctx, bson.M{rollNoKey: rollNo})
	if err != nil {
		return fmt.Errorf("studentCollection.DeleteMany error: %w", err)
	}

	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: no student with roll number %s", db.ErrorNotFound, rollNo)
	}

	return nil
}

// ImportRecords merges a parsed batch into the collection. Novel roll numbers
// are appended in batch order; rows colliding with storage or with an earlier
// row of the same batch are skipped, so duplicates within a batch resolve
// keep-first.
// Implements api.RecordDatabase.
func (mdb *MongoDB) ImportRecords(batch []*record.StudentRecord) (int, int, error) {
	cur, err := mdb.studentCollection.Find(mdb.ctx, bson.M{}, options.Find().SetProjection(bson.M{rollNoKey: 1}))
	if err != nil {
		return 0, 0, fmt.Errorf("studentCollection.Find error: %w", err)
	}

	var existing []*dbStudentRecord
	err = cur.All(mdb.ctx, &existing)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode student records: %w", err)
	}

	taken := make(map[string]bool, len(existing))
	for _, rec := range existing {
		taken[rec.RollNo] = true
	}

	baseTime := time.Now().UnixNano()
	var accepted []interface{}
	var skipped int
	for i, rec := range batch {
		if taken[rec.RollNo] {
			skipped++
			continue
		}

		taken[rec.RollNo] = true
		accepted = append(accepted, &dbStudentRecord{
			ID:        primitive.NewObjectID(),
			Name:      rec.Name,
			RollNo:    rec.RollNo,
			Marks:     rec.Marks,
			Grade:     rec.Grade,
			CreatedAt: baseTime + int64(i), // preserve batch order
		})
	}

	if len(accepted) > 0 {
		_, err = mdb.studentCollection.InsertMany(mdb.ctx, accepted)
		if err != nil {
			return 0, 0, fmt.Errorf("studentCollection.InsertMany error: %w", err)
		}
	}

	return len(accepted), skipped, nil
}

// Reset clears the whole collection.
// Implements api.RecordDatabase.
func (mdb *MongoDB) Reset() error {
	_, err := mdb.studentCollection.DeleteMany(mdb.ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("studentCollection.DeleteMany error: %w", err)
	}

	return nil
}

// Shutdown attempts to shutdown the database.
// Implements api.RecordDatabase.
func (mdb *MongoDB) Shutdown(ctx context.Context) error {
	err := mdb.db.Client().Disconnect(ctx)
	if err != nil {
		return fmt.Errorf("client.Disconnect error: %w", err)
	}

	log.Println("Database has been shutdown successfully...")

	return nil
}
