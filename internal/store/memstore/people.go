package memstore

import (
	"context"

	"github.com/clinic/clinic/internal/model"
	"github.com/clinic/clinic/internal/store"
)

// -- Users --

type userStore struct{ s *Store }

func checkUserUnique(t *txn, self int64, u model.User) error {
	for oid, other := range t.ds.users {
		if oid == self {
			continue
		}
		if other.Username == u.Username {
			return &store.UniquenessError{Entity: model.EntityUser, Field: "username", Value: u.Username}
		}
		if other.Email == u.Email {
			return &store.UniquenessError{Entity: model.EntityUser, Field: "email", Value: u.Email}
		}
	}
	return nil
}

func checkUserRefs(t *txn, u model.User) error {
	if _, ok := t.ds.roles[u.RoleID]; !ok {
		return &store.ReferenceError{Entity: model.EntityUser, Field: "role_id", Target: model.EntityRole, ID: u.RoleID}
	}
	return nil
}

func (us userStore) Insert(ctx context.Context, u model.User) (int64, error) {
	var id int64
	err := us.s.write(ctx, func(t *txn) error {
		if err := store.ValidateUser(&u); err != nil {
			return err
		}
		if err := checkUserUnique(t, 0, u); err != nil {
			return err
		}
		if err := checkUserRefs(t, u); err != nil {
			return err
		}
		t.ensure(model.EntityUser)
		id = t.s.nextID()
		now := t.s.now().UTC()
		u.ID, u.CreatedAt, u.UpdatedAt = id, now, now
		t.ds.users[id] = u
		t.recordAudit(ctx, model.EntityUser, id, model.ActionCreate)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (us userStore) Update(ctx context.Context, id int64, p model.UserPatch) error {
	return us.s.write(ctx, func(t *txn) error {
		u, ok := t.ds.users[id]
		if !ok {
			return &store.NotFoundError{Entity: model.EntityUser, ID: id}
		}
		if p.Username != nil {
			u.Username = *p.Username
		}
		if p.Email != nil {
			u.Email = *p.Email
		}
		if p.PasswordHash != nil {
			u.PasswordHash = *p.PasswordHash
		}
		if p.Name != nil {
			u.Name = *p.Name
		}
		if p.RoleID != nil {
			u.RoleID = *p.RoleID
		}
		if err := store.ValidateUser(&u); err != nil {
			return err
		}
		if err := checkUserUnique(t, id, u); err != nil {
			return err
		}
		if err := checkUserRefs(t, u); err != nil {
			return err
		}
		t.ensure(model.EntityUser)
		u.UpdatedAt = t.s.now().UTC()
		t.ds.users[id] = u
		t.recordAudit(ctx, model.EntityUser, id, model.ActionUpdate)
		return nil
	})
}

func (us userStore) Delete(ctx context.Context, id int64) error {
	return us.s.write(ctx, func(t *txn) error {
		if _, ok := t.ds.users[id]; !ok {
			return &store.NotFoundError{Entity: model.EntityUser, ID: id}
		}
		if err := t.deleteWithPolicy(model.EntityUser, id); err != nil {
			return err
		}
		t.recordAudit(ctx, model.EntityUser, id, model.ActionDelete)
		return nil
	})
}

func (us userStore) Get(_ context.Context, id int64) (model.User, error) {
	u, ok := us.s.snapshot().users[id]
	if !ok {
		return model.User{}, &store.NotFoundError{Entity: model.EntityUser, ID: id}
	}
	return u, nil
}

func (us userStore) Find(_ context.Context, f model.UserFilter) ([]model.User, error) {
	var out []model.User
	for _, u := range us.s.snapshot().users {
		if f.Username != nil && u.Username != *f.Username {
			continue
		}
		if f.Email != nil && u.Email != *f.Email {
			continue
		}
		if f.RoleID != nil && u.RoleID != *f.RoleID {
			continue
		}
		out = append(out, u)
	}
	sortByID(out, func(u model.User) int64 { return u.ID })
	return out, nil
}

// -- Patients --

type patientStore struct{ s *Store }

func checkPatientUnique(t *txn, self int64, p model.Patient) error {
	if p.NationalID == nil {
		return nil
	}
	for oid, other := range t.ds.patients {
		if oid != self && other.NationalID != nil && *other.NationalID == *p.NationalID {
			return &store.UniquenessError{Entity: model.EntityPatient, Field: "national_id", Value: *p.NationalID}
		}
	}
	return nil
}

func (ps patientStore) Insert(ctx context.Context, p model.Patient) (int64, error) {
	var id int64
	err := ps.s.write(ctx, func(t *txn) error {
		if err := store.ValidatePatient(&p); err != nil {
			return err
		}
		if err := checkPatientUnique(t, 0, p); err != nil {
			return err
		}
		t.ensure(model.EntityPatient)
		id = t.s.nextID()
		now := t.s.now().UTC()
		p.ID, p.CreatedAt, p.UpdatedAt = id, now, now
		t.ds.patients[id] = p
		t.recordAudit(ctx, model.EntityPatient, id, model.ActionCreate)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (ps patientStore) Update(ctx context.Context, id int64, p model.PatientPatch) error {
	return ps.s.write(ctx, func(t *txn) error {
		row, ok := t.ds.patients[id]
		if !ok {
			return &store.NotFoundError{Entity: model.EntityPatient, ID: id}
		}
		if p.FirstName != nil {
			row.FirstName = *p.FirstName
		}
		if p.LastName != nil {
			row.LastName = *p.LastName
		}
		if p.DateOfBirth != nil {
			row.DateOfBirth = *p.DateOfBirth
		}
		if p.Gender != nil {
			row.Gender = *p.Gender
		}
		if p.ClearNationalID {
			row.NationalID = nil
		} else if p.NationalID != nil {
			row.NationalID = p.NationalID
		}
		if p.ClearPhone {
			row.Phone = nil
		} else if p.Phone != nil {
			row.Phone = p.Phone
		}
		if p.ClearAddress {
			row.Address = nil
		} else if p.Address != nil {
			row.Address = p.Address
		}
		if err := store.ValidatePatient(&row); err != nil {
			return err
		}
		if err := checkPatientUnique(t, id, row); err != nil {
			return err
		}
		t.ensure(model.EntityPatient)
		row.UpdatedAt = t.s.now().UTC()
		t.ds.patients[id] = row
		t.recordAudit(ctx, model.EntityPatient, id, model.ActionUpdate)
		return nil
	})
}

func (ps patientStore) Delete(ctx context.Context, id int64) error {
	return ps.s.write(ctx, func(t *txn) error {
		if _, ok := t.ds.patients[id]; !ok {
			return &store.NotFoundError{Entity: model.EntityPatient, ID: id}
		}
		if err := t.deleteWithPolicy(model.EntityPatient, id); err != nil {
			return err
		}
		t.recordAudit(ctx, model.EntityPatient, id, model.ActionDelete)
		return nil
	})
}

func (ps patientStore) Get(_ context.Context, id int64) (model.Patient, error) {
	p, ok := ps.s.snapshot().patients[id]
	if !ok {
		return model.Patient{}, &store.NotFoundError{Entity: model.EntityPatient, ID: id}
	}
	return p, nil
}

func (ps patientStore) Find(_ context.Context, f model.PatientFilter) ([]model.Patient, error) {
	var out []model.Patient
	for _, p := range ps.s.snapshot().patients {
		if f.FirstName != nil && !matchFold(p.FirstName, *f.FirstName) {
			continue
		}
		if f.LastName != nil && !matchFold(p.LastName, *f.LastName) {
			continue
		}
		if f.Gender != nil && p.Gender != *f.Gender {
			continue
		}
		if f.NationalID != nil && (p.NationalID == nil || *p.NationalID != *f.NationalID) {
			continue
		}
		out = append(out, p)
	}
	sortByID(out, func(p model.Patient) int64 { return p.ID })
	return out, nil
}

// -- Doctors --

type doctorStore struct{ s *Store }

func checkDoctorUnique(t *txn, self int64, d model.Doctor) error {
	for oid, other := range t.ds.doctors {
		if oid == self {
			continue
		}
		if other.LicenseNumber == d.LicenseNumber {
			return &store.UniquenessError{Entity: model.EntityDoctor, Field: "license_number", Value: d.LicenseNumber}
		}
		if d.UserID != nil && other.UserID != nil && *other.UserID == *d.UserID {
			return &store.UniquenessError{Entity: model.EntityDoctor, Field: "user_id", Value: *d.UserID}
		}
	}
	return nil
}

func checkDoctorRefs(t *txn, d model.Doctor) error {
	if d.UserID != nil {
		if _, ok := t.ds.users[*d.UserID]; !ok {
			return &store.ReferenceError{Entity: model.EntityDoctor, Field: "user_id", Target: model.EntityUser, ID: *d.UserID}
		}
	}
	return nil
}

func (ds doctorStore) Insert(ctx context.Context, d model.Doctor) (int64, error) {
	var id int64
	err := ds.s.write(ctx, func(t *txn) error {
		if err := store.ValidateDoctor(&d); err != nil {
			return err
		}
		if err := checkDoctorUnique(t, 0, d); err != nil {
			return err
		}
		if err := checkDoctorRefs(t, d); err != nil {
			return err
		}
		t.ensure(model.EntityDoctor)
		id = t.s.nextID()
		now := t.s.now().UTC()
		d.ID, d.CreatedAt, d.UpdatedAt = id, now, now
		t.ds.doctors[id] = d
		t.recordAudit(ctx, model.EntityDoctor, id, model.ActionCreate)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (ds doctorStore) Update(ctx context.Context, id int64, p model.DoctorPatch) error {
	return ds.s.write(ctx, func(t *txn) error {
		d, ok := t.ds.doctors[id]
		if !ok {
			return &store.NotFoundError{Entity: model.EntityDoctor, ID: id}
		}
		if p.ClearUserID {
			d.UserID = nil
		} else if p.UserID != nil {
			d.UserID = p.UserID
		}
		if p.LicenseNumber != nil {
			d.LicenseNumber = *p.LicenseNumber
		}
		if p.ClearSpecialization {
			d.Specialization = nil
		} else if p.Specialization != nil {
			d.Specialization = p.Specialization
		}
		if p.ConsultationFee != nil {
			d.ConsultationFee = *p.ConsultationFee
		}
		if err := store.ValidateDoctor(&d); err != nil {
			return err
		}
		if err := checkDoctorUnique(t, id, d); err != nil {
			return err
		}
		if err := checkDoctorRefs(t, d); err != nil {
			return err
		}
		t.ensure(model.EntityDoctor)
		d.UpdatedAt = t.s.now().UTC()
		t.ds.doctors[id] = d
		t.recordAudit(ctx, model.EntityDoctor, id, model.ActionUpdate)
		return nil
	})
}

func (ds doctorStore) Delete(ctx context.Context, id int64) error {
	return ds.s.write(ctx, func(t *txn) error {
		if _, ok := t.ds.doctors[id]; !ok {
			return &store.NotFoundError{Entity: model.EntityDoctor, ID: id}
		}
		if err := t.deleteWithPolicy(model.EntityDoctor, id); err != nil {
			return err
		}
		t.recordAudit(ctx, model.EntityDoctor, id, model.ActionDelete)
		return nil
	})
}

func (ds doctorStore) Get(_ context.Context, id int64) (model.Doctor, error) {
	d, ok := ds.s.snapshot().doctors[id]
	if !ok {
		return model.Doctor{}, &store.NotFoundError{Entity: model.EntityDoctor, ID: id}
	}
	return d, nil
}

func (ds doctorStore) Find(_ context.Context, f model.DoctorFilter) ([]model.Doctor, error) {
	var out []model.Doctor
	for _, d := range ds.s.snapshot().doctors {
		if f.Specialization != nil && (d.Specialization == nil || !matchFold(*d.Specialization, *f.Specialization)) {
			continue
		}
		if f.LicenseNumber != nil && d.LicenseNumber != *f.LicenseNumber {
			continue
		}
		if f.UserID != nil && (d.UserID == nil || *d.UserID != *f.UserID) {
			continue
		}
		out = append(out, d)
	}
	sortByID(out, func(d model.Doctor) int64 { return d.ID })
	return out, nil
}
