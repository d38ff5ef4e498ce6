package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/problemhub/problemhub/internal/model"
)

// ProfileRepo provides data access to the profiles table. Each profile is
// keyed 1:1 by user_id; skills and social_links are JSON columns.
type ProfileRepo struct{ DB *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

// Get fetches the profile for a user. Returns ErrNotFound when the user has
// not created one yet.
func (r *ProfileRepo) Get(ctx context.Context, userID string) (*model.Profile, error) {
	var (
		p           model.Profile
		bio         sql.NullString
		profession  sql.NullString
		location    sql.NullString
		photo       sql.NullString
		skillsJSON  []byte
		socialsJSON []byte
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT user_id, full_name, username, bio, profession, skills, location, social_links, profile_photo, created_at, updated_at
		 FROM profiles WHERE user_id=? LIMIT 1`, userID).Scan(
		&p.UserID, &p.FullName, &p.Username, &bio, &profession, &skillsJSON,
		&location, &socialsJSON, &photo, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.Bio = bio.String
	p.Profession = profession.String
	p.Location = location.String
	p.ProfilePhoto = photo.String
	p.Skills = []string{}
	if len(skillsJSON) > 0 {
		if err := json.Unmarshal(skillsJSON, &p.Skills); err != nil {
			return nil, err
		}
	}
	p.SocialLinks = map[string]string{}
	if len(socialsJSON) > 0 {
		if err := json.Unmarshal(socialsJSON, &p.SocialLinks); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

// Exists reports whether a profile row exists for the user.
func (r *ProfileRepo) Exists(ctx context.Context, userID string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM profiles WHERE user_id=? LIMIT 1", userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Upsert creates the profile on first write and updates it afterwards,
// keyed by the unique user_id. An empty ProfilePhoto leaves a previously
// stored photo untouched.
func (r *ProfileRepo) Upsert(ctx context.Context, p *model.Profile) error {
	skills := p.Skills
	if skills == nil {
		skills = []string{}
	}
	socials := p.SocialLinks
	if socials == nil {
		socials = map[string]string{}
	}
	skillsJSON, err := json.Marshal(skills)
	if err != nil {
		return err
	}
	socialsJSON, err := json.Marshal(socials)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO profiles (user_id, full_name, username, bio, profession, skills, location, social_links, profile_photo)
		 VALUES (?,?,?,?,?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE
		 full_name=VALUES(full_name), username=VALUES(username), bio=VALUES(bio),
		 profession=VALUES(profession), skills=VALUES(skills), location=VALUES(location),
		 social_links=VALUES(social_links),
		 profile_photo=COALESCE(NULLIF(VALUES(profile_photo),''), profile_photo)`,
		p.UserID, p.FullName, p.Username, p.Bio, p.Profession, skillsJSON,
		p.Location, socialsJSON, p.ProfilePhoto)
	return err
}
