package model

// Performer is a row in the `performers` table.  Performers exist
// independently of concerts and are linked many-to-many.
type Performer struct {
    ID        uint64 // performers.id
    Name      string // performers.name
    ImageName string // performers.image_name
    Genre     string // performers.genre
    Blurb     string // performers.blurb
}
