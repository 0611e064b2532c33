package model

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID       primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name     string               `bson:"name" json:"name"`
	Email    string               `bson:"email" json:"email"`
	Password string               `bson:"password" json:"-"` // bcrypt hash, never serialized
	Image    string               `bson:"image" json:"image"`
	Places   []primitive.ObjectID `bson:"places" json:"places"`
}
