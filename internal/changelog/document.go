package changelog

import "graphql-ddl/internal/ddl"

// document mirrors the Liquibase YAML/JSON changelog layout.
type document struct {
	DatabaseChangeLog []changeSetEntry `json:"databaseChangeLog" yaml:"databaseChangeLog"`
}

type changeSetEntry struct {
	ChangeSet changeSetBody `json:"changeSet" yaml:"changeSet"`
}

type changeSetBody struct {
	ID      string        `json:"id" yaml:"id"`
	Author  string        `json:"author" yaml:"author"`
	Changes []changeEntry `json:"changes" yaml:"changes"`
}

// changeEntry holds exactly one change.
type changeEntry struct {
	CreateTable             *createTableBody `json:"createTable,omitempty" yaml:"createTable,omitempty"`
	AddForeignKeyConstraint *addForeignKey   `json:"addForeignKeyConstraint,omitempty" yaml:"addForeignKeyConstraint,omitempty"`
}

type createTableBody struct {
	TableName string        `json:"tableName" yaml:"tableName"`
	Columns   []columnEntry `json:"columns" yaml:"columns"`
}

type columnEntry struct {
	Column columnBody `json:"column" yaml:"column"`
}

type columnBody struct {
	Name          string       `json:"name" yaml:"name"`
	Type          string       `json:"type" yaml:"type"`
	AutoIncrement bool         `json:"autoIncrement,omitempty" yaml:"autoIncrement,omitempty"`
	Constraints   *constraints `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

type constraints struct {
	PrimaryKey     *bool  `json:"primaryKey,omitempty" yaml:"primaryKey,omitempty" xml:"primaryKey,attr,omitempty"`
	PrimaryKeyName string `json:"primaryKeyName,omitempty" yaml:"primaryKeyName,omitempty" xml:"primaryKeyName,attr,omitempty"`
	Nullable       *bool  `json:"nullable,omitempty" yaml:"nullable,omitempty" xml:"nullable,attr,omitempty"`
}

type addForeignKey struct {
	ConstraintName        string `json:"constraintName" yaml:"constraintName" xml:"constraintName,attr"`
	BaseTableName         string `json:"baseTableName" yaml:"baseTableName" xml:"baseTableName,attr"`
	BaseColumnNames       string `json:"baseColumnNames" yaml:"baseColumnNames" xml:"baseColumnNames,attr"`
	ReferencedTableName   string `json:"referencedTableName" yaml:"referencedTableName" xml:"referencedTableName,attr"`
	ReferencedColumnNames string `json:"referencedColumnNames" yaml:"referencedColumnNames" xml:"referencedColumnNames,attr"`
}

func newDocument(cs ddl.ChangeSet) document {
	fks := foreignKeysFor(cs)
	changes := make([]changeEntry, 0, len(cs.Tables)+len(fks))
	for _, table := range cs.Tables {
		columns := make([]columnEntry, 0, len(table.Columns))
		for _, column := range table.Columns {
			columns = append(columns, columnEntry{Column: columnBody{
				Name:          column.Name,
				Type:          column.Type.String(),
				AutoIncrement: column.AutoIncrement,
				Constraints:   constraintsFor(column),
			}})
		}
		changes = append(changes, changeEntry{CreateTable: &createTableBody{
			TableName: table.Name,
			Columns:   columns,
		}})
	}
	for i := range fks {
		changes = append(changes, changeEntry{AddForeignKeyConstraint: &fks[i]})
	}
	return document{DatabaseChangeLog: []changeSetEntry{{ChangeSet: changeSetBody{
		ID:      cs.ID,
		Author:  cs.Author,
		Changes: changes,
	}}}}
}
