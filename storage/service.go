package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

func getStructName(myvar interface{}) string {
	t := reflect.TypeOf(myvar)
	for t != nil && (t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice) {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.Name()
}

// structToMap turns the obj into a map keyed by its json tags; numbers are kept as json.Number so
// they print the same way in cache keys no matter the int type
func structToMap(obj interface{}) (map[string]interface{}, error) {
	b, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	objMap := map[string]interface{}{}
	err = dec.Decode(&objMap)
	if err != nil {
		return nil, err
	}
	return objMap, nil
}

// columnsOf returns the json tags of the struct which are also the table's column names
func columnsOf(s interface{}) (map[string]struct{}, error) {
	t := reflect.TypeOf(s)
	if t == nil {
		return nil, errors.New("storage: struct is nil")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("storage: expected struct but got %s", t.Kind())
	}

	cols := map[string]struct{}{}
	for i := 0; i < t.NumField(); i++ {
		tag := strings.Split(t.Field(i).Tag.Get("json"), ",")[0] // in case there are options like omitempty
		if tag == "" || tag == "-" {
			continue
		}
		cols[tag] = struct{}{}
	}
	return cols, nil
}

func mustBePointer(obj interface{}, what string) error {
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("storage: %s must be a non-nil pointer; is %T", what, obj)
	}
	return nil
}

func mustBeSlicePointer(dest interface{}) error {
	if err := mustBePointer(dest, "dest"); err != nil {
		return err
	}
	if k := reflect.TypeOf(dest).Elem().Kind(); k != reflect.Slice {
		return fmt.Errorf("storage: dest must be a pointer to a slice; got pointer to %s", k)
	}
	return nil
}
