package mongo

import (
	"time"

	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
	"k8s.io/klog/v2"
)

const (
	databaseNameJobHistory   = "job_history"
	collectionNameSubmission = "submissions"
	dialTimeout              = 10 * time.Second
)

// JobRecord is the audit trail of one submitted job. It is never read back
// for status inference, the cluster stays the only source of truth.
type JobRecord struct {
	Name        string     `bson:"name" json:"name"`
	Namespace   string     `bson:"namespace" json:"namespace"`
	Image       string     `bson:"image" json:"image"`
	Command     []string   `bson:"command" json:"command"`
	Args        []string   `bson:"args" json:"args"`
	Accelerator string     `bson:"accelerator" json:"accelerator"`
	Submitted   time.Time  `bson:"submitted" json:"submitted"`
	Deleted     *time.Time `bson:"deleted,omitempty" json:"deleted,omitempty"`
}

// ConnectMongo connects to a mongo session.
// It returns a pointer to the session, or an error if the connection attempt fails.
// TODO: May require username and password in the future
func ConnectMongo(mongoURI string) (*mgo.Session, error) {
	session, err := mgo.DialWithTimeout(mongoURI, dialTimeout)
	if err != nil {
		klog.ErrorS(err, "Could not connect to mongodb", "mongoURI", mongoURI)
		return nil, err
	}
	klog.InfoS("Connected to mongodb", "mongoURI", mongoURI)
	return session, nil
}

// JobRecorder stores JobRecords, one document per submission.
//  DB layout:
//  <databaseNameJobHistory>.<collectionNameSubmission>.<record>
type JobRecorder struct {
	session *mgo.Session
}

func NewJobRecorder(session *mgo.Session) *JobRecorder {
	return &JobRecorder{session: session}
}

// RecordSubmission inserts a record of an accepted job.
func (r *JobRecorder) RecordSubmission(record JobRecord) error {
	sess := r.session.Clone()
	defer sess.Close()

	err := sess.DB(databaseNameJobHistory).C(collectionNameSubmission).Insert(record)
	if err != nil {
		klog.ErrorS(err, "Failed to insert record to mongo", "database", databaseNameJobHistory,
			"collection", collectionNameSubmission, "job", record.Name)
	}
	return err
}

// RecordDeletion marks the live records of a job as deleted. Job names may be
// reused once a job is deleted, older records keep their deletion time.
func (r *JobRecorder) RecordDeletion(namespace string, name string, at time.Time) error {
	sess := r.session.Clone()
	defer sess.Close()

	selector := bson.M{"name": name, "namespace": namespace, "deleted": bson.M{"$exists": false}}
	_, err := sess.DB(databaseNameJobHistory).C(collectionNameSubmission).UpdateAll(selector,
		bson.M{"$set": bson.M{"deleted": at}})
	if err != nil {
		klog.ErrorS(err, "Failed to update record in mongo", "database", databaseNameJobHistory,
			"collection", collectionNameSubmission, "job", name)
	}
	return err
}

func (r *JobRecorder) Close() {
	r.session.Close()
}
